package orchestrator

import (
	"context"
	"fmt"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
	"github.com/steveyegge/beads/internal/types"
)

// Task is a work item tracked as a jj change: title, structured
// metadata (C4), and a handoff context embedded in the same
// description (§9's Open Question decision: the description is the
// single source of truth for the core, artifacts are sync targets).
type Task struct {
	ChangeID string
	Title    string
	Metadata Metadata
	Handoff  HandoffContext
	Bookmark string
}

// TaskManager creates and queries tasks as jj changes, composing the
// bookmark manager (C3) and revset query layer (C2) rather than
// maintaining any index of its own.
type TaskManager struct {
	exec      JJExecutor
	bookmarks *BookmarkManager
	revsets   *RevsetQueries
}

// NewTaskManager wraps exec for task lifecycle operations.
func NewTaskManager(exec JJExecutor) *TaskManager {
	return &TaskManager{
		exec:      exec,
		bookmarks: NewBookmarkManager(exec),
		revsets:   NewRevsetQueries(exec),
	}
}

// CreateTask starts a new change describing the task and marks it with
// the bare task bookmark (§6.1, "task/{change_id[:12]}").
func (tm *TaskManager) CreateTask(ctx context.Context, title string, m Metadata) (*Task, error) {
	description := WriteableDescription(title, m, HandoffContext{})
	if _, err := tm.exec.Exec(ctx, "new", "-m", description); err != nil {
		return nil, fmt.Errorf("%w: create task change: %v", coreerrors.ErrDagStoreCommand, err)
	}

	out, err := tm.exec.Exec(ctx, "log", "-r", "@", "-n", "1", "--no-graph", "-T", "change_id")
	if err != nil {
		return nil, fmt.Errorf("%w: read new change id: %v", coreerrors.ErrDagStoreCommand, err)
	}
	changeID := strings.TrimSpace(string(out))

	bookmark, err := tm.bookmarks.MarkTask(ctx, changeID)
	if err != nil {
		return nil, err
	}

	return &Task{ChangeID: changeID, Title: title, Metadata: m, Bookmark: bookmark}, nil
}

// AssignTask assigns changeID to agentName: creates the assignment
// bookmark and updates the Agent metadata field in one description
// rewrite.
func (tm *TaskManager) AssignTask(ctx context.Context, changeID, agentName string) error {
	if _, err := tm.bookmarks.AssignTask(ctx, agentName, changeID); err != nil {
		return err
	}
	title, m, err := ReadMetadata(ctx, tm.exec, changeID)
	if err != nil {
		return err
	}
	m.Agent = agentName
	return WriteMetadata(ctx, tm.exec, changeID, title, m)
}

// LoadTask reads a task's title, metadata, and handoff context back
// from its change description.
func (tm *TaskManager) LoadTask(ctx context.Context, changeID string) (*Task, error) {
	out, err := tm.exec.Exec(ctx, "log", "-r", changeID, "--no-graph", "-T", "description")
	if err != nil {
		return nil, fmt.Errorf("%w: read description for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	description := string(out)
	title, m := ParseDescription(description)
	hc := ParseHandoffContext(description)
	return &Task{ChangeID: changeID, Title: title, Metadata: m, Handoff: hc}, nil
}

// ReadyTasks returns tasks at the fringe of mutable, conflict-free
// work (C2's ReadyTasks revset), loaded with title and metadata.
func (tm *TaskManager) ReadyTasks(ctx context.Context) ([]*Task, error) {
	ids, err := tm.revsets.ReadyTasks(ctx)
	if err != nil {
		return nil, err
	}
	return tm.loadAll(ctx, ids)
}

// AllTasks returns every task ever marked with a task bookmark,
// regardless of status or assignment (§6.4's `list` with no filter).
func (tm *TaskManager) AllTasks(ctx context.Context) ([]*Task, error) {
	ids, err := tm.revsets.AllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return tm.loadAll(ctx, ids)
}

// AgentTasks returns every task currently assigned to agentName.
func (tm *TaskManager) AgentTasks(ctx context.Context, agentName string) ([]*Task, error) {
	assigned, err := tm.bookmarks.AgentTasks(ctx, agentName)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(assigned))
	for _, changeID := range assigned {
		ids = append(ids, changeID)
	}
	return tm.loadAll(ctx, ids)
}

func (tm *TaskManager) loadAll(ctx context.Context, ids []string) ([]*Task, error) {
	var tasks []*Task
	for _, id := range ids {
		task, err := tm.LoadTask(ctx, id)
		if err != nil {
			continue // ParseFailure semantics (§7): skip the offending record
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// UpdateHandoff rewrites changeID's handoff context in place, leaving
// title and metadata untouched.
func (tm *TaskManager) UpdateHandoff(ctx context.Context, changeID string, hc HandoffContext) error {
	title, m, err := ReadMetadata(ctx, tm.exec, changeID)
	if err != nil {
		return err
	}
	description := WriteableDescription(title, m, hc)
	if _, err := tm.exec.Exec(ctx, "describe", "-r", changeID, "-m", description); err != nil {
		return fmt.Errorf("%w: write handoff for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return nil
}

// UpdateMetadata reads changeID's current title and metadata, applies
// edit in place, and writes the result back in one description rewrite.
// Every CLI mutation (`update`, `close`) that only touches metadata
// fields goes through this single read-modify-write path.
func (tm *TaskManager) UpdateMetadata(ctx context.Context, changeID string, edit func(*Metadata)) error {
	title, m, err := ReadMetadata(ctx, tm.exec, changeID)
	if err != nil {
		return err
	}
	edit(&m)
	return WriteMetadata(ctx, tm.exec, changeID, title, m)
}

// CloseTask marks changeID done. A non-empty comment is recorded as the
// task's final handoff decision (§3's Decisions field) rather than
// discarded, so `bd close -c "..."` leaves a trail future agents can read.
func (tm *TaskManager) CloseTask(ctx context.Context, changeID, comment string) error {
	if comment != "" {
		hc := ParseHandoffContext(mustDescription(ctx, tm.exec, changeID))
		hc.Decisions = append(hc.Decisions, comment)
		if err := tm.UpdateHandoff(ctx, changeID, hc); err != nil {
			return err
		}
	}
	return tm.UpdateMetadata(ctx, changeID, func(m *Metadata) {
		m.Status = types.StatusDone
	})
}

// DeleteTask discards changeID outright via `jj abandon`. force is
// accepted for CLI-flag symmetry with §6.4's `delete <id> [-f]`; the
// underlying DAG store does not distinguish a forced abandon from a
// plain one, so it is not threaded through to the command.
func (tm *TaskManager) DeleteTask(ctx context.Context, changeID string, force bool) error {
	if err := ValidateIdentifier(changeID); err != nil {
		return err
	}
	if _, err := tm.exec.Exec(ctx, "abandon", "-r", changeID); err != nil {
		return fmt.Errorf("%w: abandon %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return nil
}

func mustDescription(ctx context.Context, exec JJExecutor, changeID string) string {
	out, err := exec.Exec(ctx, "log", "-r", changeID, "--no-graph", "-T", "description")
	if err != nil {
		return ""
	}
	return string(out)
}

// PersistIteration rewrites changeID's description with an updated
// handoff context plus the loop-iteration count and backpressure
// status, in one change (C13's persist_metadata step). backpressure is
// encoded as "disabled" / "pass" / "fail" so it round-trips through
// Metadata's plain string field without introducing a second codec.
func (tm *TaskManager) PersistIteration(ctx context.Context, changeID string, hc HandoffContext, iteration int, backpressureStatus string) error {
	title, m, err := ReadMetadata(ctx, tm.exec, changeID)
	if err != nil {
		return err
	}
	m.LoopIteration = iteration
	m.Backpressure = backpressureStatus
	description := WriteableDescription(title, m, hc)
	if _, err := tm.exec.Exec(ctx, "describe", "-r", changeID, "-m", description); err != nil {
		return fmt.Errorf("%w: persist iteration %d for %s: %v", coreerrors.ErrDagStoreCommand, iteration, changeID, err)
	}
	return nil
}
