package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveyegge/beads/internal/types"
)

// ValidateDependency checks that a dependency edge has the field
// values required for it to be written to or read from a
// deps/{depends_on_id}--{type}--{issue_id}.json sync file.
func ValidateDependency(dep *types.Dependency) error {
	if dep.DependsOnID == "" {
		return fmt.Errorf("depends_on_id is required")
	}
	if dep.IssueID == "" {
		return fmt.Errorf("issue_id is required")
	}
	if dep.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !dep.Type.IsValid() {
		return fmt.Errorf("invalid dependency type: %s", dep.Type)
	}
	if dep.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// DepFilename generates the sync filename for a dependency edge.
// Format: {depends_on_id}--{type}--{issue_id}.json
func DepFilename(dep *types.Dependency) string {
	return fmt.Sprintf("%s--%s--%s.json", dep.DependsOnID, dep.Type, dep.IssueID)
}

// ParseDepFilename parses a dependency sync filename into its
// (depends_on_id, type, issue_id) components.
func ParseDepFilename(filename string) (dependsOnID string, depType string, issueID string, err error) {
	name := strings.TrimSuffix(filename, ".json")

	parts := strings.Split(name, "--")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid filename format: expected {depends_on_id}--{type}--{issue_id}.json, got %s", filename)
	}

	dependsOnID, depType, issueID = parts[0], parts[1], parts[2]
	if dependsOnID == "" || depType == "" || issueID == "" {
		return "", "", "", fmt.Errorf("invalid filename: components cannot be empty")
	}

	return dependsOnID, depType, issueID, nil
}

// ReadDepFile reads and validates a dependency edge from a sync file.
func ReadDepFile(path string) (*types.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dep file: %w", err)
	}

	var dep types.Dependency
	if err := json.Unmarshal(data, &dep); err != nil {
		return nil, fmt.Errorf("parse dep file: %w", err)
	}

	if err := ValidateDependency(&dep); err != nil {
		return nil, fmt.Errorf("invalid dep file: %w", err)
	}

	return &dep, nil
}

// WriteDepFile writes a dependency edge to disk, validating it first.
func WriteDepFile(dir string, dep *types.Dependency) error {
	if err := ValidateDependency(dep); err != nil {
		return fmt.Errorf("invalid dependency: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create deps directory: %w", err)
	}

	path := filepath.Join(dir, DepFilename(dep))

	data, err := json.MarshalIndent(dep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dep file: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write dep file: %w", err)
	}

	return nil
}

// ListDepsForIssue lists every dependency edge involving issueID,
// whether issueID is the dependent or the dependency.
func ListDepsForIssue(depsDir string, issueID string) ([]*types.Dependency, error) {
	entries, err := os.ReadDir(depsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*types.Dependency{}, nil
		}
		return nil, fmt.Errorf("read deps directory: %w", err)
	}

	var deps []*types.Dependency
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		dependsOnID, _, depIssueID, err := ParseDepFilename(entry.Name())
		if err != nil {
			continue
		}

		if dependsOnID != issueID && depIssueID != issueID {
			continue
		}

		dep, err := ReadDepFile(filepath.Join(depsDir, entry.Name()))
		if err != nil {
			continue
		}
		deps = append(deps, dep)
	}

	return deps, nil
}

// ListAllDeps lists every dependency edge in depsDir.
func ListAllDeps(depsDir string) ([]*types.Dependency, error) {
	entries, err := os.ReadDir(depsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*types.Dependency{}, nil
		}
		return nil, fmt.Errorf("read deps directory: %w", err)
	}

	var deps []*types.Dependency
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		dep, err := ReadDepFile(filepath.Join(depsDir, entry.Name()))
		if err != nil {
			continue
		}
		deps = append(deps, dep)
	}

	return deps, nil
}

// DeleteDepFile removes a dependency edge's sync file. Deleting an
// already-absent file is not an error.
func DeleteDepFile(depsDir string, dependsOnID, depType, issueID string) error {
	path := filepath.Join(depsDir, fmt.Sprintf("%s--%s--%s.json", dependsOnID, depType, issueID))

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete dep file: %w", err)
	}

	return nil
}
