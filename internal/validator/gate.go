// Package validator implements the configured external-check gate
// (C14): zero or more named subprocess checks run in the workspace,
// each reporting pass/fail with a severity.
package validator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// Severity classifies whether a failing check blocks completion.
type Severity string

const (
	SeverityBreaking Severity = "Breaking"
	SeverityWarning  Severity = "Warning"
)

// Check is one configured external validation command.
type Check struct {
	Name     string   `yaml:"name"`
	Severity Severity `yaml:"severity"`
	Command  []string `yaml:"command"`
	Timeout  time.Duration
}

// Outcome is one check's result.
type Outcome struct {
	Name     string
	Passed   bool
	Severity Severity
	Output   string
}

// Result is the aggregate of running every configured check.
type Result struct {
	Outcomes []Outcome
}

// AllPassed is true iff no check exists or every check passed.
func (r Result) AllPassed() bool {
	for _, o := range r.Outcomes {
		if !o.Passed {
			return false
		}
	}
	return true
}

// FailedCheckNames returns the names of every failing check, used to
// selectively re-run after an auto-fix attempt.
func (r Result) FailedCheckNames() []string {
	var names []string
	for _, o := range r.Outcomes {
		if !o.Passed {
			names = append(names, o.Name)
		}
	}
	return names
}

// FailedText renders every failing check's output, fenced per check,
// for direct inclusion in the next loop-engine prompt's errors-to-fix
// section.
func (r Result) FailedText() string {
	var b bytes.Buffer
	for _, o := range r.Outcomes {
		if o.Passed {
			continue
		}
		fmt.Fprintf(&b, "%s (%s):\n%s\n\n", o.Name, o.Severity, o.Output)
	}
	return b.String()
}

const defaultCheckTimeout = 5 * time.Minute

// Gate runs a repo's configured checks against a workspace directory.
type Gate struct {
	Workspace string
	Checks    []Check

	// AutoFix, when set, is invoked between a failed Breaking check and
	// re-running the previously failed checks (§4.14's DAG-store
	// `fix`). Auto-fix failure is non-fatal.
	AutoFix func(ctx context.Context, workspace string) error
}

// NewGate builds a gate over workspace running checks.
func NewGate(workspace string, checks []Check) *Gate {
	return &Gate{Workspace: workspace, Checks: checks}
}

// RunAll runs every configured check once, then — if any Breaking
// check failed and AutoFix is set — attempts an auto-fix and re-runs
// only the checks that previously failed (§4.14).
func (g *Gate) RunAll(ctx context.Context) (Result, error) {
	result, err := g.runChecks(ctx, g.Checks)
	if err != nil {
		return Result{}, err
	}

	if g.AutoFix == nil || result.AllPassed() {
		return result, nil
	}
	if !hasBreakingFailure(result) {
		return result, nil
	}

	_ = g.AutoFix(ctx, g.Workspace) // non-fatal per §4.14

	failedNames := make(map[string]bool, len(result.FailedCheckNames()))
	for _, name := range result.FailedCheckNames() {
		failedNames[name] = true
	}
	var retry []Check
	for _, c := range g.Checks {
		if failedNames[c.Name] {
			retry = append(retry, c)
		}
	}
	rerun, err := g.runChecks(ctx, retry)
	if err != nil {
		return Result{}, err
	}

	merged := make([]Outcome, 0, len(result.Outcomes))
	rerunByName := make(map[string]Outcome, len(rerun.Outcomes))
	for _, o := range rerun.Outcomes {
		rerunByName[o.Name] = o
	}
	for _, o := range result.Outcomes {
		if newOutcome, ok := rerunByName[o.Name]; ok {
			merged = append(merged, newOutcome)
			continue
		}
		merged = append(merged, o)
	}
	return Result{Outcomes: merged}, nil
}

func hasBreakingFailure(r Result) bool {
	for _, o := range r.Outcomes {
		if !o.Passed && o.Severity == SeverityBreaking {
			return true
		}
	}
	return false
}

func (g *Gate) runChecks(ctx context.Context, checks []Check) (Result, error) {
	outcomes := make([]Outcome, 0, len(checks))
	for _, c := range checks {
		outcomes = append(outcomes, g.runOne(ctx, c))
	}
	return Result{Outcomes: outcomes}, nil
}

func (g *Gate) runOne(ctx context.Context, c Check) Outcome {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if len(c.Command) == 0 {
		return Outcome{Name: c.Name, Passed: false, Severity: c.Severity,
			Output: fmt.Sprintf("%v: check %q has no command configured", coreerrors.ErrValidation, c.Name)}
	}

	cmd := exec.CommandContext(runCtx, c.Command[0], c.Command[1:]...)
	cmd.Dir = g.Workspace
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return Outcome{
		Name:     c.Name,
		Passed:   err == nil,
		Severity: c.Severity,
		Output:   out.String(),
	}
}
