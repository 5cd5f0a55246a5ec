// Package conflict implements the three-stage conflict resolution
// pipeline (C16): discover, analyze, strategize-and-resolve.
package conflict

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// JJExecutor is the narrow capability set this package needs, matching
// internal/orchestrator.JJExecutor's shape so either a real DAG-store
// executor or internal/vcs/mock.Executor satisfies it directly.
type JJExecutor interface {
	Exec(ctx context.Context, args ...string) ([]byte, error)
}

// ConflictInfo is one analyzed conflicted change.
type ConflictInfo struct {
	ChangeID         string
	Files            []string
	IsFormattingOnly bool
}

// Strategy names the resolution approach chosen for a ConflictInfo.
type Strategy int

const (
	StrategyJjFix Strategy = iota
	StrategyPickSideOurs
	StrategyHumanReview
	StrategySpawnAgent // reserved; core treats as HumanReview unless overridden
)

// Resolution is the outcome of attempting to resolve one conflict.
type Resolution struct {
	Info     ConflictInfo
	Strategy Strategy
	Resolved bool
	Reason   string
}

// ResolutionReport aggregates a resolution pass over every discovered
// conflict.
type ResolutionReport struct {
	Total        int
	AutoResolved int
	AgentResolved int
	NeedsHuman   int
	Failed       int
	Resolutions  []Resolution
}

// configPatterns names file patterns treated as config/generated
// content, eligible for a PickSide{Ours} resolution (§4.16).
var configPatterns = []string{"*.toml", "*.json", "*.yaml", "Cargo.lock", "package-lock.json"}

// formattingOnlyLineThreshold is the stat-output line budget under
// which an all-source-extension conflict is considered
// formatting-only (§4.16: "diff footprint is small, <= 20 lines").
const formattingOnlyLineThreshold = 20

var sourceExtensions = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".ts": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".rb": true,
}

// Resolver runs the discover/analyze/strategize-and-resolve pipeline
// over a JJExecutor.
type Resolver struct {
	exec JJExecutor
}

// NewResolver wraps exec for conflict resolution.
func NewResolver(exec JJExecutor) *Resolver {
	return &Resolver{exec: exec}
}

// Discover enumerates conflicted change-ids via `conflicts()`.
func (r *Resolver) Discover(ctx context.Context) ([]string, error) {
	out, err := r.exec.Exec(ctx, "log", "-r", "conflicts()", "--no-graph", "-T", `change_id ++ "\n"`)
	if err != nil {
		return nil, fmt.Errorf("%w: discover conflicts: %v", coreerrors.ErrDagStoreCommand, err)
	}
	var ids []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}

// Analyze derives a ConflictInfo for changeID: the affected files and
// whether the conflict looks formatting-only.
func (r *Resolver) Analyze(ctx context.Context, changeID string) (ConflictInfo, error) {
	statOut, err := r.exec.Exec(ctx, "diff", "-r", changeID, "--stat")
	if err != nil {
		return ConflictInfo{}, fmt.Errorf("%w: diff --stat for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	statLines := strings.Split(strings.TrimSpace(string(statOut)), "\n")

	filesOut, err := r.exec.Exec(ctx, "diff", "-r", changeID, "--name-only")
	if err != nil {
		return ConflictInfo{}, fmt.Errorf("%w: diff --name-only for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	var files []string
	for _, line := range strings.Split(string(filesOut), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}

	info := ConflictInfo{ChangeID: changeID, Files: files}
	info.IsFormattingOnly = allSourceExtensions(files) && len(statLines) <= formattingOnlyLineThreshold
	return info, nil
}

func allSourceExtensions(files []string) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !sourceExtensions[filepath.Ext(f)] {
			return false
		}
	}
	return true
}

// chooseStrategy applies §4.16's first-match rules.
func chooseStrategy(info ConflictInfo) Strategy {
	if info.IsFormattingOnly {
		return StrategyJjFix
	}
	for _, f := range info.Files {
		if matchesConfigPattern(f) {
			return StrategyPickSideOurs
		}
	}
	return StrategyHumanReview
}

func matchesConfigPattern(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range configPatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// ResolveAll runs discover, analyze, and strategize-and-resolve over
// every currently conflicted change.
func (r *Resolver) ResolveAll(ctx context.Context) (ResolutionReport, error) {
	ids, err := r.Discover(ctx)
	if err != nil {
		return ResolutionReport{}, err
	}

	var report ResolutionReport
	for _, id := range ids {
		info, err := r.Analyze(ctx, id)
		if err != nil {
			report.Failed++
			report.Total++
			continue
		}
		resolution := r.resolveOne(ctx, info)
		report.Total++
		report.Resolutions = append(report.Resolutions, resolution)
		switch {
		case resolution.Resolved && (resolution.Strategy == StrategyJjFix || resolution.Strategy == StrategyPickSideOurs):
			report.AutoResolved++
		case resolution.Resolved && resolution.Strategy == StrategySpawnAgent:
			report.AgentResolved++
		case resolution.Strategy == StrategyHumanReview || resolution.Strategy == StrategySpawnAgent:
			report.NeedsHuman++
		default:
			report.Failed++
		}
	}
	return report, nil
}

func (r *Resolver) resolveOne(ctx context.Context, info ConflictInfo) Resolution {
	strategy := chooseStrategy(info)
	switch strategy {
	case StrategyJjFix:
		if _, err := r.exec.Exec(ctx, "fix", "-r", info.ChangeID); err != nil {
			return Resolution{Info: info, Strategy: strategy, Resolved: false, Reason: err.Error()}
		}
		stillConflicted, err := r.isStillConflicted(ctx, info.ChangeID)
		if err != nil {
			return Resolution{Info: info, Strategy: strategy, Resolved: false, Reason: err.Error()}
		}
		return Resolution{Info: info, Strategy: strategy, Resolved: !stillConflicted}

	case StrategyPickSideOurs:
		if _, err := r.exec.Exec(ctx, "resolve", "-r", info.ChangeID, "--tool", ":ours"); err != nil {
			return Resolution{Info: info, Strategy: strategy, Resolved: false, Reason: err.Error()}
		}
		return Resolution{Info: info, Strategy: strategy, Resolved: true}

	case StrategySpawnAgent:
		// Reserved for future semantic resolution; the core accepts
		// the strategy value but degrades to HumanReview (§4.16).
		return Resolution{Info: info, Strategy: StrategyHumanReview, Resolved: false, Reason: "semantic agent resolution not implemented"}

	default: // StrategyHumanReview
		return Resolution{Info: info, Strategy: StrategyHumanReview, Resolved: false, Reason: "requires human review"}
	}
}

func (r *Resolver) isStillConflicted(ctx context.Context, changeID string) (bool, error) {
	out, err := r.exec.Exec(ctx, "log", "-r", fmt.Sprintf("conflicts() & %s", changeID), "--no-graph", "-T", `change_id ++ "\n"`)
	if err != nil {
		return false, fmt.Errorf("%w: check conflicts() for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}
