package orchestrator

import (
	"context"
	"strings"
	"testing"

	vcsmock "github.com/steveyegge/beads/internal/vcs/mock"
)

func TestFormatDescriptionRoundTrip(t *testing.T) {
	m := NewMetadata()
	m.Agent = "agent-42"
	m.Status = "in_progress"

	hc := HandoffContext{
		CurrentFocus: "Working on jj backend implementation",
		Progress:     []string{"Designed interface", "Implemented git backend"},
		NextSteps:    []string{"Implement jj backend", "Add workspace support"},
		FilesTouched: []string{"internal/vcs/jj.go", "internal/vcs/vcs.go"},
	}

	description := WriteableDescription("Implement VCS abstraction", m, hc)

	parsedTitle, parsedMeta := ParseDescription(description)
	parsedHandoff := ParseHandoffContext(description)

	if parsedTitle != "Implement VCS abstraction" {
		t.Errorf("title: got %q", parsedTitle)
	}
	if parsedMeta.Agent != "agent-42" {
		t.Errorf("agent: got %q", parsedMeta.Agent)
	}
	if parsedMeta.Status != "in_progress" {
		t.Errorf("status: got %q", parsedMeta.Status)
	}
	if len(parsedHandoff.Progress) != 2 {
		t.Errorf("progress: got %d items", len(parsedHandoff.Progress))
	}
	if len(parsedHandoff.NextSteps) != 2 {
		t.Errorf("next steps: got %d items", len(parsedHandoff.NextSteps))
	}
	if !strings.Contains(parsedHandoff.CurrentFocus, "jj backend") {
		t.Errorf("current focus: got %q", parsedHandoff.CurrentFocus)
	}
}

func TestTaskManagerCreateTask(t *testing.T) {
	exec := vcsmock.New()
	exec.On([]string{"new", "-m", WriteableDescription("New Task", NewMetadata(), HandoffContext{})},
		[]byte("Created new change\n"), nil)
	exec.On([]string{"log", "-r", "@", "-n", "1", "--no-graph", "-T", "change_id"},
		[]byte("abc123456789\n"), nil)
	exec.On([]string{"bookmark", "create", "task/abc123456789", "-r", "abc123456789"},
		[]byte(""), nil)

	tm := NewTaskManager(exec)
	task, err := tm.CreateTask(context.Background(), "New Task", NewMetadata())
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ChangeID != "abc123456789" {
		t.Errorf("change id: got %q", task.ChangeID)
	}
	if task.Bookmark != "task/abc123456789" {
		t.Errorf("bookmark: got %q", task.Bookmark)
	}

	foundNew, foundBookmark := false, false
	for _, call := range exec.Calls() {
		if len(call) > 0 && call[0] == "new" {
			foundNew = true
		}
		if len(call) > 0 && call[0] == "bookmark" {
			foundBookmark = true
		}
	}
	if !foundNew {
		t.Error("expected 'jj new' to be called")
	}
	if !foundBookmark {
		t.Error("expected 'jj bookmark' to be called")
	}
}

func TestAgentHandoffPrepare(t *testing.T) {
	description := WriteableDescription("Important Task", NewMetadata(), HandoffContext{
		CurrentFocus: "Working on the thing",
		Progress:     []string{"Did step 1"},
		Blockers:     []string{"Waiting for API"},
	})

	exec := vcsmock.New()
	exec.On([]string{"log", "-r", "abc123456789", "--no-graph", "-T", "description"},
		[]byte(description), nil)
	exec.On([]string{"diff", "-r", "root()..abc123456789"}, []byte("+new line\n"), nil)
	exec.On([]string{"log", "-r", "ancestors(abc123456789)", "--no-graph", "-T", `change_id ++ "|" ++ description.first_line() ++ "\n"`},
		[]byte("abc123456789|Initial work\n"), nil)

	tm := NewTaskManager(exec)
	gen := NewHandoffGenerator(tm)

	handoff, err := gen.PrepareHandoff(context.Background(), "abc123456789")
	if err != nil {
		t.Fatalf("PrepareHandoff failed: %v", err)
	}
	if handoff.Task.Title != "Important Task" {
		t.Errorf("title: got %q", handoff.Task.Title)
	}
	if !strings.Contains(handoff.Diff, "new line") {
		t.Errorf("diff: got %q", handoff.Diff)
	}
	if len(handoff.History) != 1 || handoff.History[0].Description != "Initial work" {
		t.Errorf("history: got %+v", handoff.History)
	}
	if handoff.Task.Handoff.CurrentFocus != "Working on the thing" {
		t.Errorf("current focus: got %q", handoff.Task.Handoff.CurrentFocus)
	}
}
