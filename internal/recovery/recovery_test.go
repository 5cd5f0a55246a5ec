package recovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	vcsmock "github.com/steveyegge/beads/internal/vcs/mock"
)

type fakeLogger struct {
	messages []string
}

func (l *fakeLogger) Printf(format string, args ...any) {
	l.messages = append(l.messages, format)
}

func TestSnapshotReturnsOpID(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"op", "log", "--no-graph", "-n", "1", "-T", "id"}, []byte("op-abc123\n"), nil)

	m := NewManager(exec, nil)
	id, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if id != "op-abc123" {
		t.Errorf("got %q", id)
	}
}

func TestRollbackOperationsStopsAtFirstFailure(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"undo"}, nil, errFake("undo failed"))

	m := NewManager(exec, nil)
	succeeded, err := m.RollbackOperations(context.Background(), 5)
	if err == nil {
		t.Fatal("expected error from undo")
	}
	if succeeded != 0 {
		t.Errorf("expected 0 successful rollbacks before the first failure, got %d", succeeded)
	}
	if len(exec.Calls()) != 1 {
		t.Errorf("expected rollback to stop after the first undo, got %d calls", len(exec.Calls()))
	}
}

func TestRollbackOperationsSucceedsForAll(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"undo"}, []byte(""), nil)

	m := NewManager(exec, nil)
	succeeded, err := m.RollbackOperations(context.Background(), 3)
	if err != nil {
		t.Fatalf("RollbackOperations failed: %v", err)
	}
	if succeeded != 3 {
		t.Errorf("expected 3 successful rollbacks, got %d", succeeded)
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }

func TestRestoreFromCountsOpsBeforeRestoring(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"op", "log", "-r", "point1..@", "--no-graph", "-T", `id ++ "\n"`},
		[]byte("op-1\nop-2\nop-3\n"), nil)
	exec.On([]string{"op", "restore", "point1"}, []byte(""), nil)

	m := NewManager(exec, nil)
	undone, err := m.RestoreFrom(context.Background(), "point1")
	if err != nil {
		t.Fatalf("RestoreFrom failed: %v", err)
	}
	if undone != 3 {
		t.Errorf("expected 3 operations undone, got %d", undone)
	}
}

func TestRollbackAgentRemovesWorkspace(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"op", "log", "-r", "snap1..@", "--no-graph", "-T", `id ++ "\n"`},
		[]byte("op-1\n"), nil)
	exec.On([]string{"op", "restore", "snap1"}, []byte(""), nil)

	dir := t.TempDir()
	ws := filepath.Join(dir, "workspace")
	if err := os.MkdirAll(ws, 0o755); err != nil {
		t.Fatal(err)
	}

	m := NewManager(exec, nil)
	result, err := m.RollbackAgent(context.Background(), "agent-1", "snap1", ws, true)
	if err != nil {
		t.Fatalf("RollbackAgent failed: %v", err)
	}
	if !result.WorkspaceRemoved {
		t.Error("expected workspace removed")
	}
	if _, statErr := os.Stat(ws); !os.IsNotExist(statErr) {
		t.Error("expected workspace directory to be gone")
	}
}

func TestRollbackAgentEmptyWorkspacePathIsNoOp(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"op", "log", "-r", "snap1..@", "--no-graph", "-T", `id ++ "\n"`},
		[]byte(""), nil)
	exec.On([]string{"op", "restore", "snap1"}, []byte(""), nil)

	log := &fakeLogger{}
	m := NewManager(exec, log)
	// An empty workspace path makes RollbackAgent skip the removal step
	// even with removeWorkspace set: no error, nothing removed.
	result, err := m.RollbackAgent(context.Background(), "agent-1", "snap1", "", true)
	if err != nil {
		t.Fatalf("RollbackAgent failed: %v", err)
	}
	if result.WorkspaceRemoved {
		t.Error("expected no-op when workspace path is empty")
	}
}

func TestRecentOperationsParsesEntries(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"op", "log", "--no-graph", "-n", "2", "-T", `id ++ "|" ++ description.first_line() ++ "\n"`},
		[]byte("op-2|squash into abc\nop-1|new empty commit\n"), nil)

	m := NewManager(exec, nil)
	ops, err := m.RecentOperations(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentOperations failed: %v", err)
	}
	if len(ops) != 2 || ops[0].ID != "op-2" || ops[0].Description != "squash into abc" {
		t.Errorf("unexpected ops: %+v", ops)
	}
}
