package daemon_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/steveyegge/beads/internal/cache/daemon"
	"github.com/steveyegge/beads/internal/cache/db"
	"github.com/steveyegge/beads/internal/cache/schema"
	"github.com/steveyegge/beads/internal/types"
)

// Example_basicUsage demonstrates basic daemon setup and operation.
func Example_basicUsage() {
	// Create temporary directories
	tmpDir := os.TempDir()
	tasksDir := tmpDir + "/example-tasks"
	depsDir := tmpDir + "/example-deps"
	os.MkdirAll(tasksDir, 0755)
	os.MkdirAll(depsDir, 0755)
	defer os.RemoveAll(tasksDir)
	defer os.RemoveAll(depsDir)

	// Open database
	database, err := db.Open(":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()
	if err := database.InitSchema(); err != nil {
		log.Fatal(err)
	}

	// Create daemon with custom config (silent logger for example)
	config := &daemon.Config{
		BlockedCacheRefreshInterval: 1 * time.Second,
		DebounceInterval:            50 * time.Millisecond,
		Logger:                      log.New(os.Stderr, "[daemon] ", log.Ltime),
	}

	d, err := daemon.NewWithConfig(database, tasksDir, depsDir, config)
	if err != nil {
		log.Fatal(err)
	}

	// Start daemon in background
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	// Wait for initialization
	time.Sleep(100 * time.Millisecond)

	// Create an issue file
	issue := &types.Issue{
		ID:          "bd-example1",
		Title:       "Example task",
		Description: "This is an example",
		IssueType:   types.IssueTypeTask,
		Status:      types.StatusOpen,
		Priority:    1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := schema.WriteTaskFile(tasksDir, issue); err != nil {
		log.Fatal(err)
	}

	// Wait for sync
	time.Sleep(200 * time.Millisecond)

	// Modify the issue
	issue.Status = types.StatusInProgress
	issue.UpdatedAt = time.Now()
	if err := schema.WriteTaskFile(tasksDir, issue); err != nil {
		log.Fatal(err)
	}

	// Wait for processing
	time.Sleep(200 * time.Millisecond)

	fmt.Println("Daemon processed file changes successfully")

	// Wait for shutdown
	<-ctx.Done()
	if err := <-errCh; err != nil {
		log.Printf("Daemon error: %v", err)
	}

	// Output:
	// Daemon processed file changes successfully
}

// Example_manualSync demonstrates triggering a manual full sync.
func Example_manualSync() {
	// Setup
	tmpDir := os.TempDir()
	tasksDir := tmpDir + "/sync-tasks"
	depsDir := tmpDir + "/sync-deps"
	os.MkdirAll(tasksDir, 0755)
	os.MkdirAll(depsDir, 0755)
	defer os.RemoveAll(tasksDir)
	defer os.RemoveAll(depsDir)

	// Create some issues
	for i := 1; i <= 3; i++ {
		issue := &types.Issue{
			ID:        fmt.Sprintf("bd-sync%d", i),
			Title:     fmt.Sprintf("Task %d", i),
			IssueType: types.IssueTypeTask,
			Status:    types.StatusOpen,
			Priority:  i,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		schema.WriteTaskFile(tasksDir, issue)
	}

	// Setup database
	database, err := db.Open(":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()
	if err := database.InitSchema(); err != nil {
		log.Fatal(err)
	}

	// Create daemon with visible logger for output
	config := daemon.DefaultConfig()
	config.Logger = log.New(os.Stdout, "", log.Lmsgprefix)

	d, err := daemon.NewWithConfig(database, tasksDir, depsDir, config)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Stop()

	// Perform manual full sync
	if err := d.PerformFullSync(); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Manual sync completed successfully")

	// Output:
	// Performing full sync
	// Syncing 3 tasks
	// Upserting task: bd-sync1 (Task 1)
	// Upserting task: bd-sync2 (Task 2)
	// Upserting task: bd-sync3 (Task 3)
	// Syncing 0 dependencies
	// Recomputing blocked cache
	// Full sync complete
	// Manual sync completed successfully
	// Stopping daemon
	// Daemon stopped
}

// Example_gracefulShutdown demonstrates clean daemon shutdown.
func Example_gracefulShutdown() {
	// Setup
	tmpDir := os.TempDir()
	tasksDir := tmpDir + "/shutdown-tasks"
	depsDir := tmpDir + "/shutdown-deps"
	os.MkdirAll(tasksDir, 0755)
	os.MkdirAll(depsDir, 0755)
	defer os.RemoveAll(tasksDir)
	defer os.RemoveAll(depsDir)

	database, err := db.Open(":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()
	if err := database.InitSchema(); err != nil {
		log.Fatal(err)
	}

	// Create daemon
	d, err := daemon.New(database, tasksDir, depsDir)
	if err != nil {
		log.Fatal(err)
	}

	// Start daemon
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := d.Start(ctx); err != nil {
			log.Printf("Daemon error: %v", err)
		}
	}()

	// Let it run briefly
	time.Sleep(100 * time.Millisecond)

	// Trigger graceful shutdown
	cancel()

	// Wait for shutdown
	time.Sleep(200 * time.Millisecond)

	fmt.Println("Daemon shut down gracefully")

	// Output:
	// Daemon shut down gracefully
}
