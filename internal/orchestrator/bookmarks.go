package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// Bookmark naming scheme, normative per §6.1. All constructors here are
// the single source of truth for the format; nothing else in the
// codebase should hand-assemble a bookmark name.
const (
	taskBookmarkFmt         = "task/%s"
	agentTaskBookmarkFmt    = "agent/%s/task/%s"
	agentSubBookmarkFmt     = "agent/%s/%s"
	orchestratorBookmarkFmt = "orchestrator/%s"
	sessionBookmarkFmt      = "session/%s"
)

var agentTaskBookmarkRe = regexp.MustCompile(`^agent/([^/]+)/task/([0-9a-zA-Z]+)$`)

// shortID truncates a change-id to the 12-character prefix the naming
// scheme specifies; shorter ids pass through unchanged.
func shortID(changeID string) string {
	if len(changeID) <= 12 {
		return changeID
	}
	return changeID[:12]
}

// TaskBookmark returns the unassigned-task bookmark name for changeID.
func TaskBookmark(changeID string) string {
	return fmt.Sprintf(taskBookmarkFmt, shortID(changeID))
}

// AgentTaskBookmark returns the assignment bookmark name binding
// agentName to changeID.
func AgentTaskBookmark(agentName, changeID string) string {
	return fmt.Sprintf(agentTaskBookmarkFmt, agentName, shortID(changeID))
}

// AgentSubBookmark returns an agent's free-form active-work bookmark.
func AgentSubBookmark(agentName, free string) string {
	return fmt.Sprintf(agentSubBookmarkFmt, agentName, free)
}

// OrchestratorBookmark returns the base bookmark for an orchestrator id
// (format "O-{level}-{n}", §6.1).
func OrchestratorBookmark(orchID string) string {
	return fmt.Sprintf(orchestratorBookmarkFmt, orchID)
}

// SessionBookmark returns the session-tracking bookmark name.
func SessionBookmark(sessionID string) string {
	return fmt.Sprintf(sessionBookmarkFmt, sessionID)
}

// RootOrchestratorID is the level-A, sequence-1 root orchestrator id.
const RootOrchestratorID = "O-A-1"

// ChildOrchestratorID derives a child orchestrator id from a parent id
// by raising the level letter by one and keeping the caller-supplied
// sequence number, per §6.1's "children raise the level letter by one".
func ChildOrchestratorID(parentID string, n int) (string, error) {
	level, _, err := ParseOrchestratorID(parentID)
	if err != nil {
		return "", err
	}
	if level >= 'Z' {
		return "", fmt.Errorf("%w: orchestrator level exhausted past %c", coreerrors.ErrValidation, level)
	}
	return fmt.Sprintf("O-%c-%d", level+1, n), nil
}

// ParseOrchestratorID extracts the level letter and sequence number
// from an "O-{level}-{n}" id.
func ParseOrchestratorID(id string) (level byte, n int, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != "O" || len(parts[1]) != 1 {
		return 0, 0, fmt.Errorf("%w: malformed orchestrator id %q", coreerrors.ErrValidation, id)
	}
	level = parts[1][0]
	if level < 'A' || level > 'Z' {
		return 0, 0, fmt.Errorf("%w: orchestrator level %q out of range", coreerrors.ErrValidation, parts[1])
	}
	n, convErr := strconv.Atoi(parts[2])
	if convErr != nil || n < 1 {
		return 0, 0, fmt.Errorf("%w: orchestrator sequence %q invalid", coreerrors.ErrValidation, parts[2])
	}
	return level, n, nil
}

// BookmarkManager implements C3's bookmark operations on top of a
// JJExecutor. Reverse lookup (task_agent) is O(1) relative to the
// number of agent bookmarks, never the DAG: it lists bookmarks once
// and scans that list, rather than walking history.
type BookmarkManager struct {
	exec JJExecutor
}

// NewBookmarkManager wraps exec for bookmark operations.
func NewBookmarkManager(exec JJExecutor) *BookmarkManager {
	return &BookmarkManager{exec: exec}
}

// bookmarkLine is one parsed row of `jj bookmark list`, using the
// stable template "name|change_id|remote" (§4.3).
type bookmarkLine struct {
	name     string
	changeID string
	remote   string
}

func (b *BookmarkManager) list(ctx context.Context, glob string) ([]bookmarkLine, error) {
	args := []string{"bookmark", "list", "-T", `name ++ "|" ++ change_id ++ "|" ++ remote ++ "\n"`}
	if glob != "" {
		args = append(args, glob)
	}
	out, err := b.exec.Exec(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list bookmarks: %v", coreerrors.ErrDagStoreCommand, err)
	}
	var lines []bookmarkLine
	for _, raw := range strings.Split(string(out), "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, "|", 3)
		if len(parts) < 2 {
			continue // ParseFailure: skip the offending record (§7)
		}
		l := bookmarkLine{name: parts[0], changeID: parts[1]}
		if len(parts) == 3 {
			l.remote = parts[2]
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Create creates a bookmark at the given revision.
func (b *BookmarkManager) Create(ctx context.Context, name, rev string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}
	_, err := b.exec.Exec(ctx, "bookmark", "create", name, "-r", rev)
	if err != nil {
		return fmt.Errorf("%w: create bookmark %s: %v", coreerrors.ErrDagStoreCommand, name, err)
	}
	return nil
}

// Set moves an existing bookmark to point at rev.
func (b *BookmarkManager) Set(ctx context.Context, name, rev string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}
	_, err := b.exec.Exec(ctx, "bookmark", "set", name, "-r", rev)
	if err != nil {
		return fmt.Errorf("%w: move bookmark %s: %v", coreerrors.ErrDagStoreCommand, name, err)
	}
	return nil
}

// Delete removes a bookmark.
func (b *BookmarkManager) Delete(ctx context.Context, name string) error {
	_, err := b.exec.Exec(ctx, "bookmark", "delete", name)
	if err != nil {
		return fmt.Errorf("%w: delete bookmark %s: %v", coreerrors.ErrDagStoreCommand, name, err)
	}
	return nil
}

// List returns all bookmarks matching glob (empty glob = all).
func (b *BookmarkManager) List(ctx context.Context, glob string) ([]string, error) {
	lines, err := b.list(ctx, glob)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.name
	}
	return names, nil
}

// AssignTask creates the assignment bookmark "agent/{agent}/task/{id[:12]}".
func (b *BookmarkManager) AssignTask(ctx context.Context, agentName, changeID string) (string, error) {
	name := AgentTaskBookmark(agentName, changeID)
	if err := b.Create(ctx, name, changeID); err != nil {
		return "", err
	}
	return name, nil
}

// UnassignTask deletes the assignment bookmark for agentName/changeID.
func (b *BookmarkManager) UnassignTask(ctx context.Context, agentName, changeID string) error {
	return b.Delete(ctx, AgentTaskBookmark(agentName, changeID))
}

// AgentTasks returns {task_id -> change_id} for every task currently
// assigned to agentName.
func (b *BookmarkManager) AgentTasks(ctx context.Context, agentName string) (map[string]string, error) {
	glob := fmt.Sprintf("glob:agent/%s/task/*", agentName)
	lines, err := b.list(ctx, glob)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(lines))
	for _, l := range lines {
		m := agentTaskBookmarkRe.FindStringSubmatch(l.name)
		if m == nil {
			continue
		}
		result[m[2]] = l.changeID
	}
	return result, nil
}

// TaskAgent reverse-looks-up the agent assigned to changeID, scanning
// the already-fetched bookmark list rather than the DAG (P4).
func (b *BookmarkManager) TaskAgent(ctx context.Context, changeID string) (string, bool, error) {
	lines, err := b.list(ctx, "glob:agent/*/task/*")
	if err != nil {
		return "", false, err
	}
	short := shortID(changeID)
	for _, l := range lines {
		m := agentTaskBookmarkRe.FindStringSubmatch(l.name)
		if m == nil {
			continue
		}
		if m[2] == short {
			return m[1], true, nil
		}
	}
	return "", false, nil
}

// MarkTask creates the bare task bookmark for a newly created task.
func (b *BookmarkManager) MarkTask(ctx context.Context, changeID string) (string, error) {
	name := TaskBookmark(changeID)
	if err := b.Create(ctx, name, changeID); err != nil {
		return "", err
	}
	return name, nil
}

// MarkOrchestrator creates the base bookmark for an orchestrator id.
func (b *BookmarkManager) MarkOrchestrator(ctx context.Context, orchID, rev string) (string, error) {
	name := OrchestratorBookmark(orchID)
	if err := b.Create(ctx, name, rev); err != nil {
		return "", err
	}
	return name, nil
}

// SessionBookmarkFor creates the session-tracking bookmark.
func (b *BookmarkManager) SessionBookmarkFor(ctx context.Context, sessionID, rev string) (string, error) {
	name := SessionBookmark(sessionID)
	if err := b.Create(ctx, name, rev); err != nil {
		return "", err
	}
	return name, nil
}
