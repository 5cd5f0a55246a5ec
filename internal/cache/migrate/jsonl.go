// Package migrate bootstraps the file-based task/dependency store from (or
// back into) a single legacy JSONL export, for the one-time import of an
// existing issue log and for disaster-recovery export_all (§4.8).
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/beads/internal/cache/schema"
	"github.com/steveyegge/beads/internal/types"
)

// MigrateOptions contains configuration for the migration
type MigrateOptions struct {
	FromJSONL string // Input JSONL file path
	ToFiles   string // Output directory for task files
	DryRun    bool   // Preview without writing
	Backup    bool   // Create backup of original
}

// MigrateResult contains statistics about the migration
type MigrateResult struct {
	TasksConverted int
	DepsCreated    int
	FilesWritten   int
	BackupCreated  string
	Errors         []string
}

// jsonlRecord is one line of a legacy combined export: an issue plus the
// edges it originates, inlined rather than split across tasks/*.json and
// deps/*.json the way the current store keeps them.
type jsonlRecord struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	IssueType    types.IssueType   `json:"issue_type"`
	Status       types.Status      `json:"status"`
	Priority     int               `json:"priority"`
	Assignee     string            `json:"assignee,omitempty"`
	Labels       []string          `json:"labels,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DueAt        *time.Time        `json:"due_at,omitempty"`
	DeferUntil   *time.Time        `json:"defer_until,omitempty"`
	Orchestrator string            `json:"orchestrator,omitempty"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty"`
	Dependencies []jsonlDependency `json:"dependencies,omitempty"`
}

// jsonlDependency is one edge inlined under a jsonlRecord.
type jsonlDependency struct {
	DependsOnID string               `json:"depends_on_id"`
	Type        types.DependencyType `json:"type"`
	CreatedAt   time.Time            `json:"created_at,omitempty"`
}

func (r jsonlRecord) toIssue() *types.Issue {
	issue := &types.Issue{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		IssueType:    r.IssueType,
		Status:       r.Status,
		Priority:     r.Priority,
		Assignee:     r.Assignee,
		Labels:       r.Labels,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		DueAt:        r.DueAt,
		DeferUntil:   r.DeferUntil,
		Orchestrator: r.Orchestrator,
		DeletedAt:    r.DeletedAt,
	}
	issue.SetDefaults()
	return issue
}

func (r jsonlRecord) toDependencies() []*types.Dependency {
	if len(r.Dependencies) == 0 {
		return nil
	}
	deps := make([]*types.Dependency, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		createdAt := d.CreatedAt
		if createdAt.IsZero() {
			createdAt = r.CreatedAt
		}
		deps = append(deps, &types.Dependency{
			IssueID:     r.ID,
			DependsOnID: d.DependsOnID,
			Type:        d.Type,
			CreatedAt:   createdAt,
		})
	}
	return deps
}

// decodeRecords reads every line of a JSONL export.
func decodeRecords(jsonlPath string) ([]jsonlRecord, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	var records []jsonlRecord
	decoder := json.NewDecoder(file)
	lineNum := 0

	for {
		var rec jsonlRecord
		if err := decoder.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++
		records = append(records, rec)
	}

	return records, nil
}

// FromJSONL reads a JSONL file and returns the issues it contains, with
// defaults applied. Inlined dependencies are dropped; use Migrate to
// import both issues and their dependencies.
func FromJSONL(jsonlPath string) ([]*types.Issue, error) {
	records, err := decodeRecords(jsonlPath)
	if err != nil {
		return nil, err
	}

	issues := make([]*types.Issue, 0, len(records))
	for _, rec := range records {
		issues = append(issues, rec.toIssue())
	}
	return issues, nil
}

// writeIssueAtomic writes an issue's tasks/{id}.json sync file via a
// temp-file rename, so a migration killed mid-write never leaves a
// partial file for the daemon to trip over.
func writeIssueAtomic(issue *types.Issue, outputDir string) error {
	tasksDir := filepath.Join(outputDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		return fmt.Errorf("failed to create tasks directory: %w", err)
	}

	if err := schema.ValidateIssue(issue); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	data, err := json.MarshalIndent(issue, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	taskPath := filepath.Join(tasksDir, schema.TaskFilename(issue.ID))
	tmpPath := taskPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, taskPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// writeDepAtomic writes a dependency's deps/{...}.json sync file via a
// temp-file rename, mirroring writeIssueAtomic.
func writeDepAtomic(dep *types.Dependency, outputDir string) error {
	depsDir := filepath.Join(outputDir, "deps")
	if err := os.MkdirAll(depsDir, 0755); err != nil {
		return fmt.Errorf("failed to create deps directory: %w", err)
	}

	if err := schema.ValidateDependency(dep); err != nil {
		return fmt.Errorf("invalid dependency: %w", err)
	}

	data, err := json.MarshalIndent(dep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dependency: %w", err)
	}

	depPath := filepath.Join(depsDir, schema.DepFilename(dep))
	tmpPath := depPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, depPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Migrate performs the JSONL to file-based format migration
func Migrate(ctx context.Context, opts MigrateOptions) (*MigrateResult, error) {
	result := &MigrateResult{}

	if _, err := os.Stat(opts.FromJSONL); err != nil {
		return nil, fmt.Errorf("input file does not exist: %w", err)
	}

	if opts.Backup && !opts.DryRun {
		backupPath := opts.FromJSONL + ".backup." + time.Now().Format("20060102-150405")
		input, err := os.ReadFile(opts.FromJSONL)
		if err != nil {
			return nil, fmt.Errorf("failed to read input for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupCreated = backupPath
	}

	records, err := decodeRecords(opts.FromJSONL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONL: %w", err)
	}

	writtenDeps := make(map[string]bool)

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		issue := rec.toIssue()

		// Skip tombstones - they shouldn't be migrated
		if issue.IsTombstone() {
			continue
		}

		if !opts.DryRun {
			if err := writeIssueAtomic(issue, opts.ToFiles); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("failed to write task %s: %v", issue.ID, err))
				continue
			}
			result.FilesWritten++
		}
		result.TasksConverted++

		for _, dep := range rec.toDependencies() {
			depKey := fmt.Sprintf("%s|%s|%s", dep.IssueID, dep.Type, dep.DependsOnID)
			if writtenDeps[depKey] {
				continue
			}
			writtenDeps[depKey] = true

			if !opts.DryRun {
				if err := writeDepAtomic(dep, opts.ToFiles); err != nil {
					result.Errors = append(result.Errors,
						fmt.Sprintf("failed to write dep %s: %v", depKey, err))
					continue
				}
				result.FilesWritten++
			}
			result.DepsCreated++
		}
	}

	return result, nil
}

// CleanupMigration removes generated files (for rollback)
func CleanupMigration(outputDir string) error {
	tasksDir := filepath.Join(outputDir, "tasks")
	depsDir := filepath.Join(outputDir, "deps")

	for _, dir := range []string{tasksDir, depsDir} {
		if _, err := os.Stat(dir); err == nil {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to remove %s: %w", dir, err)
			}
		}
	}

	return nil
}
