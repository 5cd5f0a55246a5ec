// Package recovery implements the three operations over the DAG
// store's operation log (C17): snapshot, rollback_operations, and
// restore_from, plus the agent-specific rollback_agent composite.
package recovery

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// JJExecutor is the narrow capability this package needs.
type JJExecutor interface {
	Exec(ctx context.Context, args ...string) ([]byte, error)
}

// Logger is the narrow logging capability recovery needs for
// non-fatal workspace-delete failures (§4.17).
type Logger interface {
	Printf(format string, args ...any)
}

// Manager implements C17 over a JJExecutor.
type Manager struct {
	exec JJExecutor
	log  Logger
}

// NewManager wraps exec for recovery operations.
func NewManager(exec JJExecutor, log Logger) *Manager {
	return &Manager{exec: exec, log: log}
}

// Snapshot returns the current operation-log id.
func (m *Manager) Snapshot(ctx context.Context) (string, error) {
	out, err := m.exec.Exec(ctx, "op", "log", "--no-graph", "-n", "1", "-T", "id")
	if err != nil {
		return "", fmt.Errorf("%w: snapshot op id: %v", coreerrors.ErrDagStoreCommand, err)
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", fmt.Errorf("%w: empty op id from op log", coreerrors.ErrParseFailure)
	}
	return id, nil
}

// RollbackOperations invokes undo sequentially up to n times, stopping
// at the first failure, and returns how many succeeded.
func (m *Manager) RollbackOperations(ctx context.Context, n int) (int, error) {
	succeeded := 0
	for i := 0; i < n; i++ {
		if _, err := m.exec.Exec(ctx, "undo"); err != nil {
			return succeeded, fmt.Errorf("%w: undo failed after %d successful rollbacks: %v", coreerrors.ErrDagStoreCommand, succeeded, err)
		}
		succeeded++
	}
	return succeeded, nil
}

// RestoreFrom invokes `op restore <point>`. operationsUndone is
// computed by counting recent operations newer than point, measured
// before the restore executes (§4.17).
func (m *Manager) RestoreFrom(ctx context.Context, point string) (operationsUndone int, err error) {
	count, err := m.countOpsNewerThan(ctx, point)
	if err != nil {
		return 0, err
	}
	if _, err := m.exec.Exec(ctx, "op", "restore", point); err != nil {
		return 0, fmt.Errorf("%w: restore to %s: %v", coreerrors.ErrDagStoreCommand, point, err)
	}
	return count, nil
}

func (m *Manager) countOpsNewerThan(ctx context.Context, point string) (int, error) {
	revset := fmt.Sprintf("%s..@", point)
	out, err := m.exec.Exec(ctx, "op", "log", "-r", revset, "--no-graph", "-T", `id ++ "\n"`)
	if err != nil {
		return 0, fmt.Errorf("%w: count ops newer than %s: %v", coreerrors.ErrDagStoreCommand, point, err)
	}
	n := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}

// RollbackResult reports what RollbackAgent did.
type RollbackResult struct {
	OperationsUndone int
	WorkspaceRemoved bool
}

// RollbackAgent restores to snapshotOp and, if removeWorkspace is set,
// deletes the agent's workspace directory. Workspace-delete failure is
// logged but non-fatal (§4.17).
func (m *Manager) RollbackAgent(ctx context.Context, agentName, snapshotOp string, workspacePath string, removeWorkspace bool) (RollbackResult, error) {
	undone, err := m.RestoreFrom(ctx, snapshotOp)
	if err != nil {
		return RollbackResult{}, err
	}

	result := RollbackResult{OperationsUndone: undone}
	if !removeWorkspace {
		return result, nil
	}
	if workspacePath == "" {
		return result, nil
	}
	if err := os.RemoveAll(workspacePath); err != nil {
		if m.log != nil {
			m.log.Printf("rollback_agent(%s): failed to remove workspace %s: %v", agentName, workspacePath, err)
		}
		return result, nil
	}
	result.WorkspaceRemoved = true
	return result, nil
}

// OperationInfo is one parsed op-log entry, used by callers that need
// the raw log rather than just a count.
type OperationInfo struct {
	ID          string
	Description string
}

// RecentOperations returns the last n operation-log entries, most
// recent first.
func (m *Manager) RecentOperations(ctx context.Context, n int) ([]OperationInfo, error) {
	out, err := m.exec.Exec(ctx, "op", "log", "--no-graph", "-n", strconv.Itoa(n), "-T", `id ++ "|" ++ description.first_line() ++ "\n"`)
	if err != nil {
		return nil, fmt.Errorf("%w: recent operations: %v", coreerrors.ErrDagStoreCommand, err)
	}
	var ops []OperationInfo
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) < 2 {
			continue
		}
		ops = append(ops, OperationInfo{ID: parts[0], Description: parts[1]})
	}
	return ops, nil
}
