package orchestrator

import (
	"context"
	"fmt"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// HandoffContext is the structured state a stateless loop iteration
// (C13) hands to the next, carried inside the change description
// (§3's Handoff Context fields). LoopIteration and Backpressure live on
// Metadata instead, since they are scalar loop-engine fields rather
// than accumulated lists.
type HandoffContext struct {
	CurrentFocus string
	Progress     []string
	NextSteps    []string
	Blockers     []string
	FilesTouched []string
	Decisions    []string
}

const (
	sectionCurrentFocus = "Current Focus"
	sectionProgress     = "Progress"
	sectionNextSteps    = "Next Steps"
	sectionBlockers     = "Blockers"
	sectionFilesTouched = "Files Touched"
	sectionDecisions    = "Decisions"
)

// FormatHandoffContext renders hc as the markdown sections appended
// after the metadata block in a task's description. An empty hc
// renders to an empty string so a freshly created task's description
// carries no stray headers.
func FormatHandoffContext(hc HandoffContext) string {
	if hc.CurrentFocus == "" && len(hc.Progress) == 0 && len(hc.NextSteps) == 0 &&
		len(hc.Blockers) == 0 && len(hc.FilesTouched) == 0 && len(hc.Decisions) == 0 {
		return ""
	}

	var b strings.Builder
	if hc.CurrentFocus != "" {
		fmt.Fprintf(&b, "\n## %s\n%s\n", sectionCurrentFocus, hc.CurrentFocus)
	}
	writeList(&b, sectionProgress, hc.Progress)
	writeList(&b, sectionNextSteps, hc.NextSteps)
	writeList(&b, sectionBlockers, hc.Blockers)
	writeList(&b, sectionFilesTouched, hc.FilesTouched)
	writeList(&b, sectionDecisions, hc.Decisions)
	return b.String()
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", header)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// ParseHandoffContext scans a full change description for the "##
// Section" blocks FormatHandoffContext writes. Metadata key:value
// lines preceding the first section are ignored: they never match the
// "## " prefix this parser looks for.
func ParseHandoffContext(description string) HandoffContext {
	var hc HandoffContext
	section := ""
	for _, raw := range strings.Split(description, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "## ") {
			section = strings.TrimPrefix(line, "## ")
			continue
		}
		if line == "" {
			continue
		}
		switch section {
		case sectionCurrentFocus:
			if hc.CurrentFocus == "" {
				hc.CurrentFocus = line
			} else {
				hc.CurrentFocus += "\n" + line
			}
		case sectionProgress:
			appendBulleted(&hc.Progress, line)
		case sectionNextSteps:
			appendBulleted(&hc.NextSteps, line)
		case sectionBlockers:
			appendBulleted(&hc.Blockers, line)
		case sectionFilesTouched:
			appendBulleted(&hc.FilesTouched, line)
		case sectionDecisions:
			appendBulleted(&hc.Decisions, line)
		}
	}
	return hc
}

func appendBulleted(dst *[]string, line string) {
	if strings.HasPrefix(line, "- ") {
		*dst = append(*dst, strings.TrimPrefix(line, "- "))
	}
}

// WriteableDescription composes the full change description: title,
// metadata block, then handoff sections. This is the one place that
// combines C4's codec with the handoff sections, so CreateTask and
// UpdateHandoff never drift out of sync on field order.
func WriteableDescription(title string, m Metadata, hc HandoffContext) string {
	return FormatDescription(title, m) + FormatHandoffContext(hc)
}

// HandoffGenerator prepares the context a new agent needs to continue
// a task: the structured handoff plus the cumulative diff and change
// history, formatted into the fixed prompt section loopengine expects.
type HandoffGenerator struct {
	tm *TaskManager
}

// NewHandoffGenerator creates a handoff generator over tm.
func NewHandoffGenerator(tm *TaskManager) *HandoffGenerator {
	return &HandoffGenerator{tm: tm}
}

// ChangeEntry is a single ancestor change in a task's history.
type ChangeEntry struct {
	ChangeID    string
	Description string
}

// GetDiff returns the cumulative diff from root to changeID.
func (h *HandoffGenerator) GetDiff(ctx context.Context, changeID string) (string, error) {
	out, err := h.tm.exec.Exec(ctx, "diff", "-r", fmt.Sprintf("root()..%s", changeID))
	if err != nil {
		return "", fmt.Errorf("%w: diff for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return string(out), nil
}

// GetChangeLog returns the ancestor history of changeID as (id,
// first-line) pairs, oldest grammar independent of graph rendering.
func (h *HandoffGenerator) GetChangeLog(ctx context.Context, changeID string) ([]ChangeEntry, error) {
	out, err := h.tm.exec.Exec(ctx, "log",
		"-r", fmt.Sprintf("ancestors(%s)", changeID),
		"--no-graph",
		"-T", `change_id ++ "|" ++ description.first_line() ++ "\n"`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: change log for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	var entries []ChangeEntry
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) < 2 {
			continue
		}
		entries = append(entries, ChangeEntry{ChangeID: strings.TrimSpace(parts[0]), Description: strings.TrimSpace(parts[1])})
	}
	return entries, nil
}

// AgentHandoff bundles everything a new agent needs to resume a task.
type AgentHandoff struct {
	Task    *Task
	Diff    string
	History []ChangeEntry
}

// PrepareHandoff gathers the task, its cumulative diff, and its change
// history for a new agent taking over changeID.
func (h *HandoffGenerator) PrepareHandoff(ctx context.Context, changeID string) (*AgentHandoff, error) {
	task, err := h.tm.LoadTask(ctx, changeID)
	if err != nil {
		return nil, err
	}
	diff, err := h.GetDiff(ctx, changeID)
	if err != nil {
		diff = "(failed to get diff)"
	}
	history, _ := h.GetChangeLog(ctx, changeID)
	return &AgentHandoff{Task: task, Diff: diff, History: history}, nil
}
