package validator

import (
	"context"

	"github.com/steveyegge/beads/internal/orchestrator/loopengine"
)

// LoopEngineGate adapts *Gate to loopengine.ValidatorGate, translating
// a full Result into the three-flag BackpressureSnapshot the prompt
// builder reports.
type LoopEngineGate struct {
	Gate *Gate
}

// RunAll satisfies loopengine.ValidatorGate.
func (g LoopEngineGate) RunAll(ctx context.Context) (loopengine.BackpressureSnapshot, error) {
	result, err := g.Gate.RunAll(ctx)
	if err != nil {
		return loopengine.BackpressureSnapshot{}, err
	}
	return loopengine.BackpressureSnapshot{
		AllPassed:  result.AllPassed(),
		FailedText: result.FailedText(),
	}, nil
}
