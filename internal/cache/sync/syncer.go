package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveyegge/beads/internal/cache/db"
	"github.com/steveyegge/beads/internal/cache/schema"
)

// syncer implements the Syncer interface.
type syncer struct {
	db     *db.DB
	logger *log.Logger
}

// New creates a new Syncer instance.
//
// The database connection must be initialized and have schema created
// before passing to this function.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	database, err := db.Open(".beads/turso.db")
//	if err != nil {
//	    return err
//	}
//	if err := database.InitSchema(); err != nil {
//	    return err
//	}
//	syncer := sync.New(database, nil)
func New(database *db.DB, logger *log.Logger) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &syncer{
		db:     database,
		logger: logger,
	}
}

// SyncTask implements Syncer.SyncTask.
func (s *syncer) SyncTask(taskPath string) error {
	// Read task file
	task, err := schema.ReadTaskFile(taskPath)
	if err != nil {
		return fmt.Errorf("failed to read task file: %w", err)
	}

	// Upsert to database
	if err := s.db.UpsertTask(task); err != nil {
		return fmt.Errorf("failed to sync task to database: %w", err)
	}

	s.logger.Printf("Synced task: %s (%s)", task.ID, task.Title)
	return nil
}

// SyncDep implements Syncer.SyncDep.
func (s *syncer) SyncDep(depPath string) error {
	// Read dependency file
	dep, err := schema.ReadDepFile(depPath)
	if err != nil {
		return fmt.Errorf("failed to read dep file: %w", err)
	}

	// Upsert to database
	if err := s.db.UpsertDep(dep); err != nil {
		return fmt.Errorf("failed to sync dep to database: %w", err)
	}

	s.logger.Printf("Synced dependency: %s --%s--> %s", dep.DependsOnID, dep.Type, dep.IssueID)
	return nil
}

// DeleteTask implements Syncer.DeleteTask.
func (s *syncer) DeleteTask(taskID string) error {
	if err := s.db.DeleteTask(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Printf("Deleted task: %s", taskID)
	return nil
}

// DeleteDep implements Syncer.DeleteDep.
func (s *syncer) DeleteDep(dependsOnID, issueID, typ string) error {
	if err := s.db.DeleteDep(dependsOnID, issueID, typ); err != nil {
		return fmt.Errorf("failed to delete dep: %w", err)
	}

	s.logger.Printf("Deleted dependency: %s --%s--> %s", dependsOnID, typ, issueID)
	return nil
}

// FullSync implements Syncer.FullSync.
func (s *syncer) FullSync(tasksDir, depsDir string) (Result, error) {
	s.logger.Printf("Starting full sync from tasks=%s, deps=%s", tasksDir, depsDir)

	var result Result

	// Sync all task files
	if err := s.syncAllTasks(tasksDir, &result.TasksSynced, &result.TasksFailed); err != nil {
		return result, fmt.Errorf("failed to sync tasks: %w", err)
	}

	// Sync all dependency files
	if err := s.syncAllDeps(depsDir, &result.DepsSynced, &result.DepsFailed); err != nil {
		return result, fmt.Errorf("failed to sync deps: %w", err)
	}

	// Refresh blocked cache after syncing all files
	s.logger.Printf("Refreshing blocked cache...")
	if err := s.RefreshBlockedCache(); err != nil {
		return result, fmt.Errorf("failed to refresh blocked cache: %w", err)
	}

	s.logger.Printf("Full sync complete: tasks=%d (failed=%d), deps=%d (failed=%d)",
		result.TasksSynced, result.TasksFailed, result.DepsSynced, result.DepsFailed)

	return result, nil
}

// SyncChanged implements Syncer.SyncChanged.
func (s *syncer) SyncChanged(ctx context.Context, store DAGStore, since string) (Result, error) {
	var result Result

	changed, err := store.ChangedFiles(ctx, since)
	if err != nil {
		return result, fmt.Errorf("failed to list changed files since %s: %w", since, err)
	}

	needsBlockedRefresh := false
	for _, f := range changed {
		isTask := strings.Contains(filepath.ToSlash(f.Path), "/tasks/") || strings.HasPrefix(filepath.ToSlash(f.Path), "tasks/")
		isDep := strings.Contains(filepath.ToSlash(f.Path), "/deps/") || strings.HasPrefix(filepath.ToSlash(f.Path), "deps/")
		if !isTask && !isDep {
			continue
		}

		if f.Status == 'D' {
			if isTask {
				id := strings.TrimSuffix(filepath.Base(f.Path), ".json")
				if err := s.DeleteTask(id); err != nil {
					s.logger.Printf("WARNING: failed to delete task for removed file %s: %v", f.Path, err)
					result.TasksFailed++
					continue
				}
				result.Deleted++
			} else {
				dependsOnID, typ, issueID, err := schema.ParseDepFilename(filepath.Base(f.Path))
				if err != nil {
					s.logger.Printf("WARNING: failed to parse removed dep filename %s: %v", f.Path, err)
					result.DepsFailed++
					continue
				}
				if err := s.DeleteDep(dependsOnID, issueID, typ); err != nil {
					s.logger.Printf("WARNING: failed to delete dep for removed file %s: %v", f.Path, err)
					result.DepsFailed++
					continue
				}
				result.Deleted++
			}
			needsBlockedRefresh = true
			continue
		}

		if isTask {
			if err := s.SyncTask(f.Path); err != nil {
				s.logger.Printf("WARNING: failed to sync changed task %s: %v", f.Path, err)
				result.TasksFailed++
				continue
			}
			result.TasksSynced++
		} else {
			if err := s.SyncDep(f.Path); err != nil {
				s.logger.Printf("WARNING: failed to sync changed dep %s: %v", f.Path, err)
				result.DepsFailed++
				continue
			}
			result.DepsSynced++
		}
		needsBlockedRefresh = true
	}

	if needsBlockedRefresh {
		if err := s.RefreshBlockedCache(); err != nil {
			return result, fmt.Errorf("failed to refresh blocked cache: %w", err)
		}
	}

	return result, nil
}

// ExportAll implements Syncer.ExportAll.
func (s *syncer) ExportAll(tasksDir, depsDir string) (Result, error) {
	var result Result

	tasks, err := s.db.ListTasks(db.ListTasksFilter{Priority: -1})
	if err != nil {
		return result, fmt.Errorf("failed to list tasks for export: %w", err)
	}
	for _, task := range tasks {
		if err := schema.WriteTaskFile(tasksDir, task); err != nil {
			s.logger.Printf("WARNING: failed to export task %s: %v", task.ID, err)
			result.TasksFailed++
			continue
		}
		result.TasksSynced++
	}

	seen := make(map[string]bool)
	for _, task := range tasks {
		deps, err := s.db.GetDepsForTask(task.ID)
		if err != nil {
			s.logger.Printf("WARNING: failed to list deps for task %s: %v", task.ID, err)
			continue
		}
		for _, dep := range deps {
			key := dep.DependsOnID + "\x00" + dep.IssueID + "\x00" + string(dep.Type)
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := schema.WriteDepFile(depsDir, dep); err != nil {
				s.logger.Printf("WARNING: failed to export dep %s--%s--%s: %v", dep.DependsOnID, dep.Type, dep.IssueID, err)
				result.DepsFailed++
				continue
			}
			result.DepsSynced++
		}
	}

	s.logger.Printf("Export complete: tasks=%d (failed=%d), deps=%d (failed=%d)",
		result.TasksSynced, result.TasksFailed, result.DepsSynced, result.DepsFailed)

	return result, nil
}

// syncAllTasks reads and syncs all task files from the directory.
// Individual file failures are logged but don't stop the sync.
func (s *syncer) syncAllTasks(tasksDir string, tasksRead, tasksFailed *int) error {
	// Check if directory exists
	if _, err := os.Stat(tasksDir); os.IsNotExist(err) {
		s.logger.Printf("Tasks directory doesn't exist: %s (skipping)", tasksDir)
		return nil
	}

	// Read directory
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		return fmt.Errorf("failed to read tasks directory: %w", err)
	}

	// Process each file
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only process .json files
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(tasksDir, entry.Name())

		// Try to sync the task
		if err := s.SyncTask(path); err != nil {
			s.logger.Printf("WARNING: Failed to sync task %s: %v", entry.Name(), err)
			*tasksFailed++
			continue
		}

		*tasksRead++
	}

	return nil
}

// syncAllDeps reads and syncs all dependency files from the directory.
// Individual file failures are logged but don't stop the sync.
func (s *syncer) syncAllDeps(depsDir string, depsRead, depsFailed *int) error {
	// Check if directory exists
	if _, err := os.Stat(depsDir); os.IsNotExist(err) {
		s.logger.Printf("Deps directory doesn't exist: %s (skipping)", depsDir)
		return nil
	}

	// Read directory
	entries, err := os.ReadDir(depsDir)
	if err != nil {
		return fmt.Errorf("failed to read deps directory: %w", err)
	}

	// Process each file
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only process .json files
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(depsDir, entry.Name())

		// Try to sync the dependency
		if err := s.SyncDep(path); err != nil {
			s.logger.Printf("WARNING: Failed to sync dep %s: %v", entry.Name(), err)
			*depsFailed++
			continue
		}

		*depsRead++
	}

	return nil
}

// RefreshBlockedCache implements Syncer.RefreshBlockedCache.
func (s *syncer) RefreshBlockedCache() error {
	if err := s.db.RefreshBlockedCache(); err != nil {
		return fmt.Errorf("failed to refresh blocked cache: %w", err)
	}

	s.logger.Printf("Blocked cache refreshed")
	return nil
}
