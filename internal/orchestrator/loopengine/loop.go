package loopengine

import (
	"context"
	"fmt"

	"github.com/steveyegge/beads/internal/orchestrator"
)

// LoopConfig bounds and parameterizes one stateless loop run (§4.13).
type LoopConfig struct {
	MaxIterations       int
	Model               string
	BackpressureEnabled bool
	MaxTokens           int
}

// Outcome names why Run returned, per §4.13.2.
type Outcome int

const (
	OutcomeMaxIterations Outcome = iota
	OutcomeAllChecksPassed
	OutcomeAgentStop
	OutcomePromiseComplete
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllChecksPassed:
		return "AllChecksPassed"
	case OutcomeAgentStop:
		return "AgentStop"
	case OutcomePromiseComplete:
		return "PromiseComplete"
	case OutcomeCancelled:
		return "Cancelled"
	default:
		return "MaxIterations"
	}
}

// AgentClient spawns one fresh agent turn with no retained
// conversation: the entire point of statelessness (§4.13, "NO
// history").
type AgentClient interface {
	SpawnFreshAgent(ctx context.Context, prompt, model string, maxTokens int) (string, error)
}

// FileOpsResult reports what a file-operation execution pass did, per
// C15's ExecutionResult.
type FileOpsResult struct {
	FilesCreated  []string
	FilesModified []string
}

// FileOpsExecutor executes the <write_to_file>/<capture_screenshot>
// blocks an agent emitted (C15).
type FileOpsExecutor interface {
	Execute(ctx context.Context, workspace, agentOutput string) (FileOpsResult, error)
}

// ValidatorGate runs the configured external checks and reports
// pass/fail as a BackpressureSnapshot (C14).
type ValidatorGate interface {
	RunAll(ctx context.Context) (BackpressureSnapshot, error)
}

// TaskStore is the narrow slice of orchestrator.TaskManager the loop
// engine needs: read and persist a task's handoff context plus its
// loop-iteration/backpressure metadata fields.
type TaskStore interface {
	LoadTask(ctx context.Context, changeID string) (*orchestrator.Task, error)
	PersistIteration(ctx context.Context, changeID string, hc orchestrator.HandoffContext, iteration int, backpressureStatus string) error
}

// taskManagerStore adapts *orchestrator.TaskManager to TaskStore.
type taskManagerStore struct {
	tm *orchestrator.TaskManager
}

// NewTaskStore wraps tm for use as a loop engine TaskStore.
func NewTaskStore(tm *orchestrator.TaskManager) TaskStore {
	return taskManagerStore{tm: tm}
}

func (s taskManagerStore) LoadTask(ctx context.Context, changeID string) (*orchestrator.Task, error) {
	return s.tm.LoadTask(ctx, changeID)
}

func (s taskManagerStore) PersistIteration(ctx context.Context, changeID string, hc orchestrator.HandoffContext, iteration int, backpressureStatus string) error {
	return s.tm.PersistIteration(ctx, changeID, hc, iteration, backpressureStatus)
}

// Run drives changeID's task to completion using stateless iterations
// (§4.13's pseudocode, transcribed directly): each iteration reads no
// state but the persisted context and the current validator outcomes,
// spawns one fresh agent, executes any file operations it emitted,
// updates context from its context-update block (or keeps the
// previous context if none was emitted), persists, and checks for a
// stop condition.
func Run(ctx context.Context, changeID, workspace string, cfg LoopConfig, store TaskStore, agent AgentClient, fileOps FileOpsExecutor, validators ValidatorGate) (Outcome, error) {
	task, err := store.LoadTask(ctx, changeID)
	if err != nil {
		return OutcomeMaxIterations, fmt.Errorf("load task %s: %w", changeID, err)
	}

	hc := task.Handoff
	bp, err := runBackpressure(ctx, cfg, validators)
	if err != nil {
		return OutcomeMaxIterations, err
	}

	for iteration := 1; iteration <= cfg.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			// Cancellation between iterations: the last persisted
			// context is never truncated (§4.13.2).
			return OutcomeCancelled, ctx.Err()
		default:
		}

		if iteration > 1 && bp.AllPassed {
			return OutcomeAllChecksPassed, nil
		}

		prompt := BuildPrompt(task, hc, bp, iteration, cfg.MaxIterations)
		output, err := agent.SpawnFreshAgent(ctx, prompt, cfg.Model, cfg.MaxTokens)
		if err != nil {
			return OutcomeMaxIterations, fmt.Errorf("spawn agent iteration %d: %w", iteration, err)
		}

		execResult, err := fileOps.Execute(ctx, workspace, output)
		if err != nil {
			execResult = FileOpsResult{}
		}

		if updated, ok := ParseContextUpdate(output); ok {
			hc = updated
		}
		hc.FilesTouched = unionStrings(hc.FilesTouched, execResult.FilesCreated, execResult.FilesModified)

		if cfg.BackpressureEnabled {
			bp, err = runBackpressure(ctx, cfg, validators)
			if err != nil {
				return OutcomeMaxIterations, err
			}
		}

		if err := store.PersistIteration(ctx, changeID, hc, iteration, bp.Snapshot()); err != nil {
			return OutcomeMaxIterations, fmt.Errorf("persist iteration %d: %w", iteration, err)
		}

		switch DetectStopSignal(output) {
		case StopPromiseComplete:
			return OutcomePromiseComplete, nil
		case StopAgentStop:
			return OutcomeAgentStop, nil
		}
	}

	return OutcomeMaxIterations, nil
}

func runBackpressure(ctx context.Context, cfg LoopConfig, validators ValidatorGate) (BackpressureSnapshot, error) {
	if !cfg.BackpressureEnabled {
		return BackpressureSnapshot{Enabled: false, AllPassed: true}, nil
	}
	bp, err := validators.RunAll(ctx)
	if err != nil {
		return BackpressureSnapshot{}, fmt.Errorf("run validators: %w", err)
	}
	bp.Enabled = true
	return bp, nil
}

func unionStrings(base []string, groups ...[]string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	out := append([]string(nil), base...)
	for _, group := range groups {
		for _, s := range group {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
