// Package schema defines the JSON sync-file encodings for tasks and
// dependencies.
//
// # Overview
//
// Every issue and dependency edge round-trips to an individual JSON
// file inside the jj working copy, one file per record, so jj can
// merge concurrent agent writes without a lock: issues under
// tasks/{id}.json, dependencies under
// deps/{depends_on_id}--{type}--{issue_id}.json. This package operates
// directly on internal/types.Issue and internal/types.Dependency —
// there is no intermediate row type to keep synchronized with them.
//
// # Dependency Files
//
// Example: bd-abc--blocks--bd-xyz.json (bd-xyz depends on bd-abc):
//
//	{
//	  "issue_id": "bd-xyz",
//	  "depends_on_id": "bd-abc",
//	  "type": "blocks",
//	  "created_at": "2026-01-10T07:36:29Z"
//	}
//
// # Dependency Types
//
// Supported types, from internal/types:
//   - blocks - hard dependency (issue X blocks issue Y)
//   - relates_to - soft relationship
//   - parent_of - epic/subtask relationship
//   - discovered_from - track issues discovered during work
//
// # Usage Examples
//
// Creating a dependency:
//
//	dep := &types.Dependency{
//	    IssueID:     "bd-xyz",
//	    DependsOnID: "bd-abc",
//	    Type:        types.DependencyBlocks,
//	    CreatedAt:   time.Now(),
//	}
//	err := schema.WriteDepFile("deps", dep)
//
// Reading a dependency:
//
//	dep, err := schema.ReadDepFile("deps/bd-abc--blocks--bd-xyz.json")
//
// Listing all dependencies for an issue:
//
//	deps, err := schema.ListDepsForIssue("deps", "bd-abc")
//	for _, dep := range deps {
//	    fmt.Printf("%s --%s--> %s\n", dep.DependsOnID, dep.Type, dep.IssueID)
//	}
//
// Deleting a dependency:
//
//	err := schema.DeleteDepFile("deps", "bd-abc", "blocks", "bd-xyz")
//
// # Design Principles
//
//   - Flat JSON structure (CRDT-friendly, last-write-wins by UpdatedAt/CreatedAt)
//   - Filename encodes the relationship (enables directory listing queries)
//   - One file per record (jj merges efficiently at scale)
//   - No intermediate row type — reads and writes types.Issue/types.Dependency directly
package schema
