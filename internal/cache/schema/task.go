// Package schema holds the on-disk and on-wire JSON encodings the
// query cache synchronizes against: one file per issue under tasks/,
// one file per dependency edge under deps/. Every function here reads
// or writes types.Issue/types.Dependency directly — there is no
// intermediate row type, so a field added to types never needs a
// second definition here to match it.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steveyegge/beads/internal/types"
)

// ValidateIssue checks that an issue has the field values required for
// it to be written to or read from a tasks/{id}.json sync file. The
// flat, independently-updatable field set keeps concurrent writers
// (different agents editing different fields) CRDT-friendly: last
// writer per field wins, resolved by UpdatedAt.
func ValidateIssue(issue *types.Issue) error {
	if issue.ID == "" {
		return fmt.Errorf("id is required")
	}
	if issue.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(issue.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(issue.Title))
	}
	if issue.Priority < 0 || issue.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", issue.Priority)
	}
	if issue.IssueType == "" {
		return fmt.Errorf("issue_type is required")
	}
	if issue.Status == "" {
		return fmt.Errorf("status is required")
	}
	if issue.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if issue.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// TaskFilename returns the canonical sync filename for an issue: {id}.json
func TaskFilename(id string) string {
	return fmt.Sprintf("%s.json", id)
}

// ReadTaskFile reads and parses an issue JSON file from the given path.
func ReadTaskFile(path string) (*types.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file %s: %w", path, err)
	}

	var issue types.Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}

	if err := ValidateIssue(&issue); err != nil {
		return nil, fmt.Errorf("invalid task file %s: %w", path, err)
	}

	return &issue, nil
}

// WriteTaskFile writes an issue to disk as pretty-printed JSON at
// tasksDir/{id}.json.
func WriteTaskFile(tasksDir string, issue *types.Issue) error {
	if err := ValidateIssue(issue); err != nil {
		return fmt.Errorf("cannot write invalid task: %w", err)
	}

	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		return fmt.Errorf("create tasks directory: %w", err)
	}

	data, err := json.MarshalIndent(issue, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", issue.ID, err)
	}

	path := filepath.Join(tasksDir, TaskFilename(issue.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write task file %s: %w", path, err)
	}

	return nil
}

// ReadAllTaskFiles reads every issue file from tasksDir. A missing
// directory is treated as empty. Files that fail to parse or validate
// are skipped with a warning rather than aborting the whole read.
func ReadAllTaskFiles(tasksDir string) ([]*types.Issue, error) {
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*types.Issue{}, nil
		}
		return nil, fmt.Errorf("read tasks directory: %w", err)
	}

	var issues []*types.Issue
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(tasksDir, entry.Name())
		issue, err := ReadTaskFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping invalid task file %s: %v\n", entry.Name(), err)
			continue
		}

		issues = append(issues, issue)
	}

	return issues, nil
}

// PrepareIssue fills in default values and refreshes the updated_at
// timestamp before an issue is written to a sync file. Callers apply
// this after mutating an in-memory issue and before WriteTaskFile.
func PrepareIssue(issue *types.Issue) {
	issue.SetDefaults()
	if issue.Labels == nil {
		issue.Labels = []string{}
	}
	issue.UpdatedAt = time.Now()
}
