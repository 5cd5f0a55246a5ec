// Package hooks implements the post-tool-use hook pipeline (C18): an
// ordered, fail-open sequence of side-effecting callbacks run after
// each loop-engine iteration.
package hooks

import (
	"context"
	"fmt"
)

// Context carries the information a hook needs. Hooks must not mutate
// agent output; they observe and may only report success/failure.
type Context struct {
	ChangeID      string
	WorkspacePath string
	Iteration     int
}

// Result is what a hook returns. Success false does not abort the
// pipeline; later hooks still run (§4.18, fail-open).
type Result struct {
	Name    string
	Success bool
	Message string
}

// Hook is one post-tool-use callback.
type Hook interface {
	Name() string
	Execute(ctx context.Context, hctx Context) Result
}

// Logger is the narrow logging capability the pipeline needs to
// report a failing hook without aborting the run.
type Logger interface {
	Printf(format string, args ...any)
}

// Pipeline runs an ordered list of hooks, logging but never propagating
// individual hook failures.
type Pipeline struct {
	hooks []Hook
	log   Logger
}

// NewPipeline builds a pipeline over hooks, run in the given order.
func NewPipeline(log Logger, hooks ...Hook) *Pipeline {
	return &Pipeline{hooks: hooks, log: log}
}

// Run executes every hook in order and returns all results, regardless
// of individual failures.
func (p *Pipeline) Run(ctx context.Context, hctx Context) []Result {
	results := make([]Result, 0, len(p.hooks))
	for _, h := range p.hooks {
		result := p.runOne(ctx, h, hctx)
		results = append(results, result)
		if !result.Success && p.log != nil {
			p.log.Printf("hook %s failed: %s", result.Name, result.Message)
		}
	}
	return results
}

func (p *Pipeline) runOne(ctx context.Context, h Hook, hctx Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Name: h.Name(), Success: false, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return h.Execute(ctx, hctx)
}

// FuncHook adapts a plain function to the Hook interface, for small
// inline hooks that don't warrant their own type.
type FuncHook struct {
	HookName string
	Fn       func(ctx context.Context, hctx Context) Result
}

func (f FuncHook) Name() string { return f.HookName }

func (f FuncHook) Execute(ctx context.Context, hctx Context) Result {
	return f.Fn(ctx, hctx)
}
