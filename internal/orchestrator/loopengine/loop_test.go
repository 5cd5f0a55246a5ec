package loopengine

import (
	"context"
	"testing"

	"github.com/steveyegge/beads/internal/orchestrator"
)

type fakeStore struct {
	task           *orchestrator.Task
	persistedCalls int
	lastIteration  int
	lastStatus     string
}

func (f *fakeStore) LoadTask(ctx context.Context, changeID string) (*orchestrator.Task, error) {
	return f.task, nil
}

func (f *fakeStore) PersistIteration(ctx context.Context, changeID string, hc orchestrator.HandoffContext, iteration int, backpressureStatus string) error {
	f.persistedCalls++
	f.lastIteration = iteration
	f.lastStatus = backpressureStatus
	f.task.Handoff = hc
	return nil
}

type scriptedAgent struct {
	outputs []string
	calls   int
}

func (a *scriptedAgent) SpawnFreshAgent(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	out := a.outputs[a.calls]
	a.calls++
	return out, nil
}

type noopFileOps struct{}

func (noopFileOps) Execute(ctx context.Context, workspace, output string) (FileOpsResult, error) {
	return FileOpsResult{}, nil
}

type allPassValidators struct{}

func (allPassValidators) RunAll(ctx context.Context) (BackpressureSnapshot, error) {
	return BackpressureSnapshot{AllPassed: true}, nil
}

func TestRunStopsOnPromiseComplete(t *testing.T) {
	store := &fakeStore{task: &orchestrator.Task{ChangeID: "abc123456789", Title: "Do the thing"}}
	agent := &scriptedAgent{outputs: []string{
		"```context\nFOCUS: working on it\nPROGRESS: did step 1\n```\n<promise>COMPLETE</promise>",
	}}

	outcome, err := Run(context.Background(), "abc123456789", "/workspace",
		LoopConfig{MaxIterations: 5, Model: "test-model", MaxTokens: 1000},
		store, agent, noopFileOps{}, allPassValidators{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome != OutcomePromiseComplete {
		t.Errorf("expected PromiseComplete, got %s", outcome)
	}
	if store.persistedCalls != 1 {
		t.Errorf("expected 1 persisted iteration, got %d", store.persistedCalls)
	}
	if store.task.Handoff.CurrentFocus != "working on it" {
		t.Errorf("expected context update applied, got %+v", store.task.Handoff)
	}
}

func TestRunStopsOnAllChecksPassedAfterFirstIteration(t *testing.T) {
	store := &fakeStore{task: &orchestrator.Task{ChangeID: "abc123456789", Title: "Do the thing"}}
	agent := &scriptedAgent{outputs: []string{
		"```context\nFOCUS: first pass\n```",
		"should never run",
	}}

	outcome, err := Run(context.Background(), "abc123456789", "/workspace",
		LoopConfig{MaxIterations: 5, BackpressureEnabled: true, Model: "test-model", MaxTokens: 1000},
		store, agent, noopFileOps{}, allPassValidators{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome != OutcomeAllChecksPassed {
		t.Errorf("expected AllChecksPassed, got %s", outcome)
	}
	if agent.calls != 1 {
		t.Errorf("expected agent called once before the all-passed short-circuit, got %d", agent.calls)
	}
}

type neverPassValidators struct{}

func (neverPassValidators) RunAll(ctx context.Context) (BackpressureSnapshot, error) {
	return BackpressureSnapshot{AllPassed: false, FailedText: "lint: 2 errors"}, nil
}

// TestRunExhaustsMaxIterations exercises the case where backpressure is
// enabled but never satisfied: the loop must run every iteration up to
// MaxIterations rather than short-circuiting.
func TestRunExhaustsMaxIterations(t *testing.T) {
	store := &fakeStore{task: &orchestrator.Task{ChangeID: "abc123456789", Title: "Do the thing"}}
	agent := &scriptedAgent{outputs: []string{"no signal", "no signal", "no signal"}}

	outcome, err := Run(context.Background(), "abc123456789", "/workspace",
		LoopConfig{MaxIterations: 3, BackpressureEnabled: true, Model: "test-model", MaxTokens: 1000},
		store, agent, noopFileOps{}, neverPassValidators{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome != OutcomeMaxIterations {
		t.Errorf("expected MaxIterations, got %s", outcome)
	}
	if agent.calls != 3 {
		t.Errorf("expected 3 agent calls, got %d", agent.calls)
	}
}

// TestRunDisabledBackpressureStopsAfterFirstIteration matches §4.13's
// pseudocode literally: backpressure defaults to "all passed" when
// disabled, so with no stop signal from the agent the iteration-2
// check still short-circuits to AllChecksPassed.
func TestRunDisabledBackpressureStopsAfterFirstIteration(t *testing.T) {
	store := &fakeStore{task: &orchestrator.Task{ChangeID: "abc123456789", Title: "Do the thing"}}
	agent := &scriptedAgent{outputs: []string{"no signal", "should never run"}}

	outcome, err := Run(context.Background(), "abc123456789", "/workspace",
		LoopConfig{MaxIterations: 5, Model: "test-model", MaxTokens: 1000},
		store, agent, noopFileOps{}, allPassValidators{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome != OutcomeAllChecksPassed {
		t.Errorf("expected AllChecksPassed, got %s", outcome)
	}
	if agent.calls != 1 {
		t.Errorf("expected exactly 1 agent call, got %d", agent.calls)
	}
}
