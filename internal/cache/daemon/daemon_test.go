package daemon

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/beads/internal/cache/db"
	"github.com/steveyegge/beads/internal/cache/schema"
	"github.com/steveyegge/beads/internal/types"
)

// setupTestDB creates a fresh on-disk Turso database for testing.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "turso.db")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.InitSchema(); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}

	return database
}

// setupTestDirs creates temporary directories for tasks and deps.
func setupTestDirs(t *testing.T) (tasksDir, depsDir string, cleanup func()) {
	t.Helper()

	tmpDir := t.TempDir()
	tasksDir = filepath.Join(tmpDir, "tasks")
	depsDir = filepath.Join(tmpDir, "deps")

	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		t.Fatalf("Failed to create tasks dir: %v", err)
	}
	if err := os.MkdirAll(depsDir, 0755); err != nil {
		t.Fatalf("Failed to create deps dir: %v", err)
	}

	cleanup = func() {
		// Cleanup is handled by t.TempDir()
	}

	return tasksDir, depsDir, cleanup
}

// writeTaskFile writes an issue to disk for testing.
func writeTaskFile(t *testing.T, dir string, issue *types.Issue) {
	t.Helper()

	if err := schema.WriteTaskFile(dir, issue); err != nil {
		t.Fatalf("Failed to write task file: %v", err)
	}
}

// writeDepFile writes a dependency to disk for testing.
func writeDepFile(t *testing.T, dir string, dep *types.Dependency) {
	t.Helper()

	if err := schema.WriteDepFile(dir, dep); err != nil {
		t.Fatalf("Failed to write dep file: %v", err)
	}
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	tests := []struct {
		name    string
		db      *db.DB
		tasks   string
		deps    string
		wantErr bool
	}{
		{
			name:    "valid configuration",
			db:      db,
			tasks:   tasksDir,
			deps:    depsDir,
			wantErr: false,
		},
		{
			name:    "nil database",
			db:      nil,
			tasks:   tasksDir,
			deps:    depsDir,
			wantErr: true,
		},
		{
			name:    "empty tasks dir",
			db:      db,
			tasks:   "",
			deps:    depsDir,
			wantErr: true,
		},
		{
			name:    "empty deps dir",
			db:      db,
			tasks:   tasksDir,
			deps:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daemon, err := New(tt.db, tt.tasks, tt.deps)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if daemon != nil {
				defer daemon.Stop()
			}
		})
	}
}

func TestDaemon_PerformFullSync(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	// Create test issues
	now := time.Now()
	issue1 := &types.Issue{
		ID:          "bd-test1",
		Title:       "Test task 1",
		Description: "First test task",
		IssueType:   types.IssueTypeTask,
		Status:      types.StatusOpen,
		Priority:    1,
		Labels:      []string{"test"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	writeTaskFile(t, tasksDir, issue1)

	issue2 := &types.Issue{
		ID:          "bd-test2",
		Title:       "Test task 2",
		Description: "Second test task",
		IssueType:   types.IssueTypeBug,
		Status:      types.StatusInProgress,
		Priority:    0,
		Labels:      []string{"urgent"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	writeTaskFile(t, tasksDir, issue2)

	// Create test dependency
	dep := &types.Dependency{
		DependsOnID: "bd-test1",
		IssueID:     "bd-test2",
		Type:        types.DependencyBlocks,
		CreatedAt:   now,
	}
	writeDepFile(t, depsDir, dep)

	// Create daemon with silent logger
	config := DefaultConfig()
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	// Perform full sync
	if err := daemon.PerformFullSync(); err != nil {
		t.Fatalf("PerformFullSync() error = %v", err)
	}

	count, err := db.GetTaskCount()
	if err != nil {
		t.Fatalf("GetTaskCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("GetTaskCount() = %d, want 2", count)
	}
}

func TestDaemon_FileWatching(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	// Create daemon with short intervals for testing
	config := DefaultConfig()
	config.DebounceInterval = 50 * time.Millisecond
	config.BlockedCacheRefreshInterval = 100 * time.Millisecond
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	// Start daemon in background
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Start(ctx)
	}()

	// Wait for daemon to initialize
	time.Sleep(100 * time.Millisecond)

	// Create a new issue file
	now := time.Now()
	issue := &types.Issue{
		ID:          "bd-watch1",
		Title:       "Watched task",
		Description: "This task was created after daemon started",
		IssueType:   types.IssueTypeFeature,
		Status:      types.StatusOpen,
		Priority:    2,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	writeTaskFile(t, tasksDir, issue)

	// Wait for debounce and processing
	time.Sleep(200 * time.Millisecond)

	// Modify the issue
	issue.Status = types.StatusInProgress
	issue.UpdatedAt = time.Now()
	writeTaskFile(t, tasksDir, issue)

	// Wait for processing
	time.Sleep(200 * time.Millisecond)

	// Delete the task file
	taskPath := filepath.Join(tasksDir, schema.TaskFilename(issue.ID))
	if err := os.Remove(taskPath); err != nil {
		t.Fatalf("Failed to delete task file: %v", err)
	}

	// Wait for processing
	time.Sleep(200 * time.Millisecond)

	// Wait for daemon to finish
	<-ctx.Done()
	if err := <-errCh; err != nil {
		t.Errorf("Daemon error: %v", err)
	}
}

func TestDaemon_DebounceMultipleChanges(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	// Create daemon with longer debounce interval
	config := DefaultConfig()
	config.DebounceInterval = 200 * time.Millisecond
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	// Start daemon
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Start(ctx)
	}()

	// Wait for initialization
	time.Sleep(100 * time.Millisecond)

	// Create an issue and rapidly modify it
	now := time.Now()
	issue := &types.Issue{
		ID:          "bd-debounce1",
		Title:       "Debounce test",
		Description: "Initial description",
		IssueType:   types.IssueTypeTask,
		Status:      types.StatusOpen,
		Priority:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	writeTaskFile(t, tasksDir, issue)

	// Make rapid changes (faster than debounce interval)
	for i := 0; i < 5; i++ {
		issue.Description = time.Now().String()
		issue.UpdatedAt = time.Now()
		writeTaskFile(t, tasksDir, issue)
		time.Sleep(30 * time.Millisecond)
	}

	// Wait for debounce to settle
	time.Sleep(500 * time.Millisecond)

	<-ctx.Done()
	if err := <-errCh; err != nil {
		t.Errorf("Daemon error: %v", err)
	}
}

func TestDaemon_GracefulShutdown(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	config := DefaultConfig()
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	// Start daemon
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Start(ctx)
	}()

	// Let it run briefly
	time.Sleep(100 * time.Millisecond)

	// Signal shutdown
	cancel()

	// Wait for graceful shutdown
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Daemon shutdown error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Daemon did not shut down within timeout")
	}
}

func TestDaemon_InvalidFiles(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	// Create an invalid task file (missing required fields)
	invalidTask := map[string]interface{}{
		"id": "bd-invalid",
		// Missing title, issue_type, status, etc.
	}
	data, _ := json.MarshalIndent(invalidTask, "", "  ")
	invalidPath := filepath.Join(tasksDir, "bd-invalid.json")
	if err := os.WriteFile(invalidPath, data, 0644); err != nil {
		t.Fatalf("Failed to write invalid file: %v", err)
	}

	config := DefaultConfig()
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	// Full sync should complete despite invalid file
	// (it should log warning and continue)
	if err := daemon.PerformFullSync(); err != nil {
		t.Errorf("PerformFullSync() should handle invalid files gracefully, got error: %v", err)
	}
}

func TestDaemon_NonJsonFiles(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	// Create non-JSON files that should be ignored
	txtFile := filepath.Join(tasksDir, "README.txt")
	if err := os.WriteFile(txtFile, []byte("This is not a task file"), 0644); err != nil {
		t.Fatalf("Failed to write txt file: %v", err)
	}

	config := DefaultConfig()
	config.DebounceInterval = 50 * time.Millisecond
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Start(ctx)
	}()

	// Wait for initialization
	time.Sleep(100 * time.Millisecond)

	// Modify the .txt file - should be ignored
	if err := os.WriteFile(txtFile, []byte("Updated text"), 0644); err != nil {
		t.Fatalf("Failed to update txt file: %v", err)
	}

	// Wait a bit
	time.Sleep(200 * time.Millisecond)

	// Should not cause any errors
	<-ctx.Done()
	if err := <-errCh; err != nil {
		t.Errorf("Daemon error: %v", err)
	}
}

func TestDaemon_EmptyDirectories(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	config := DefaultConfig()
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	// Full sync on empty directories should work
	if err := daemon.PerformFullSync(); err != nil {
		t.Errorf("PerformFullSync() on empty dirs error = %v", err)
	}
}

func TestDaemon_ConcurrentFileChanges(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tasksDir, depsDir, cleanup := setupTestDirs(t)
	defer cleanup()

	config := DefaultConfig()
	config.DebounceInterval = 100 * time.Millisecond
	config.Logger = log.New(io.Discard, "", 0)

	daemon, err := NewWithConfig(db, tasksDir, depsDir, config)
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer daemon.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	// Simulate multiple agents writing concurrently
	now := time.Now()
	done := make(chan bool, 3)

	// Agent 1 - creates tasks
	go func() {
		for i := 0; i < 5; i++ {
			issue := &types.Issue{
				ID:        "bd-agent1-" + string(rune('a'+i)),
				Title:     "Agent 1 task",
				IssueType: types.IssueTypeTask,
				Status:    types.StatusOpen,
				Priority:  1,
				CreatedAt: now,
				UpdatedAt: time.Now(),
			}
			writeTaskFile(t, tasksDir, issue)
			time.Sleep(50 * time.Millisecond)
		}
		done <- true
	}()

	// Agent 2 - creates different tasks
	go func() {
		for i := 0; i < 5; i++ {
			issue := &types.Issue{
				ID:        "bd-agent2-" + string(rune('a'+i)),
				Title:     "Agent 2 task",
				IssueType: types.IssueTypeBug,
				Status:    types.StatusOpen,
				Priority:  0,
				CreatedAt: now,
				UpdatedAt: time.Now(),
			}
			writeTaskFile(t, tasksDir, issue)
			time.Sleep(50 * time.Millisecond)
		}
		done <- true
	}()

	// Agent 3 - creates dependencies
	go func() {
		time.Sleep(100 * time.Millisecond) // Wait for some tasks to exist
		for i := 0; i < 3; i++ {
			dep := &types.Dependency{
				DependsOnID: "bd-agent1-a",
				IssueID:     "bd-agent2-a",
				Type:        types.DependencyBlocks,
				CreatedAt:   time.Now(),
			}
			writeDepFile(t, depsDir, dep)
			time.Sleep(50 * time.Millisecond)
		}
		done <- true
	}()

	// Wait for all agents
	for i := 0; i < 3; i++ {
		<-done
	}

	// Wait for processing
	time.Sleep(500 * time.Millisecond)

	<-ctx.Done()
	if err := <-errCh; err != nil {
		t.Errorf("Daemon error: %v", err)
	}
}
