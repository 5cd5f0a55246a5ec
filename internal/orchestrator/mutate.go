package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// Mutator wraps the DAG mutation operations of C5: thin, non-interactive
// wrappers that parse the interesting fragments of stdout/stderr rather
// than returning raw strings (§4.5, "parsing is resilient to added
// lines: filter rather than positional parse").
type Mutator struct {
	exec JJExecutor
}

// NewMutator wraps exec for DAG mutation operations.
func NewMutator(exec JJExecutor) *Mutator {
	return &Mutator{exec: exec}
}

// ParallelizeResult reports what parallelize(revset) observed.
type ParallelizeResult struct {
	ConflictCount int
}

var conflictLineRe = regexp.MustCompile(`(?i)(\d+)\s+conflict`)

// Parallelize restructures a sequential chain of changes named by
// revset into siblings sharing a common base.
func (m *Mutator) Parallelize(ctx context.Context, revset string) (ParallelizeResult, error) {
	out, err := m.exec.Exec(ctx, "parallelize", "-r", revset)
	if err != nil {
		return ParallelizeResult{}, fmt.Errorf("%w: parallelize %q: %v", coreerrors.ErrDagStoreCommand, revset, err)
	}
	result := ParallelizeResult{}
	for _, line := range strings.Split(string(out), "\n") {
		if match := conflictLineRe.FindStringSubmatch(line); match != nil {
			if n, convErr := strconv.Atoi(match[1]); convErr == nil {
				result.ConflictCount += n
			}
		}
	}
	return result, nil
}

// AbsorbResult records which hunks absorb() distributed into ancestors.
type AbsorbResult struct {
	HunksAbsorbed int
	IntoCommits   []string
}

var absorbedLineRe = regexp.MustCompile(`Absorbed (\d+) hunks? into (?:commit )?([0-9a-zA-Z]+)`)

// Absorb auto-distributes working-copy hunks into the ancestor commits
// that last touched the corresponding lines. paths restricts which
// files are considered; empty means all changed files.
func (m *Mutator) Absorb(ctx context.Context, paths []string) (AbsorbResult, error) {
	args := append([]string{"absorb"}, paths...)
	out, err := m.exec.Exec(ctx, args...)
	if err != nil {
		return AbsorbResult{}, fmt.Errorf("%w: absorb: %v", coreerrors.ErrDagStoreCommand, err)
	}
	result := AbsorbResult{}
	for _, line := range strings.Split(string(out), "\n") {
		if match := absorbedLineRe.FindStringSubmatch(line); match != nil {
			n, _ := strconv.Atoi(match[1])
			result.HunksAbsorbed += n
			result.IntoCommits = append(result.IntoCommits, match[2])
		}
	}
	return result, nil
}

// SplitByFiles splits change non-interactively into sibling changes,
// one per group of paths, via --siblings.
func (m *Mutator) SplitByFiles(ctx context.Context, changeID string, groups [][]string) ([]string, error) {
	if err := ValidateIdentifier(changeID); err != nil {
		return nil, err
	}
	args := []string{"split", "-r", changeID, "--siblings"}
	for _, group := range groups {
		args = append(args, group...)
	}
	out, err := m.exec.Exec(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: split %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return extractChangeIDs(string(out)), nil
}

// Squash folds changeID into its parent.
func (m *Mutator) Squash(ctx context.Context, changeID string) error {
	if err := ValidateIdentifier(changeID); err != nil {
		return err
	}
	_, err := m.exec.Exec(ctx, "squash", "-r", changeID)
	if err != nil {
		return fmt.Errorf("%w: squash %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return nil
}

// SquashInto folds src into dst, optionally restricted to paths.
func (m *Mutator) SquashInto(ctx context.Context, src, dst string, paths []string) error {
	if err := ValidateIdentifier(src); err != nil {
		return err
	}
	if err := ValidateIdentifier(dst); err != nil {
		return err
	}
	args := []string{"squash", "--from", src, "--into", dst}
	args = append(args, paths...)
	_, err := m.exec.Exec(ctx, args...)
	if err != nil {
		return fmt.Errorf("%w: squash %s into %s: %v", coreerrors.ErrDagStoreCommand, src, dst, err)
	}
	return nil
}

// Duplicate creates a speculative copy of changeID, optionally as a
// child of dest, and returns the new change id.
func (m *Mutator) Duplicate(ctx context.Context, changeID, dest string) (string, error) {
	if err := ValidateIdentifier(changeID); err != nil {
		return "", err
	}
	args := []string{"duplicate", changeID}
	if dest != "" {
		if err := ValidateIdentifier(dest); err != nil {
			return "", err
		}
		args = append(args, "-d", dest)
	}
	out, err := m.exec.Exec(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("%w: duplicate %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	ids := extractChangeIDs(string(out))
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: duplicate %s produced no new change id", coreerrors.ErrParseFailure, changeID)
	}
	return ids[len(ids)-1], nil
}

// Backout produces a new change that inverts changeID.
func (m *Mutator) Backout(ctx context.Context, changeID string) (string, error) {
	if err := ValidateIdentifier(changeID); err != nil {
		return "", err
	}
	out, err := m.exec.Exec(ctx, "backout", "-r", changeID)
	if err != nil {
		return "", fmt.Errorf("%w: backout %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	ids := extractChangeIDs(string(out))
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: backout %s produced no new change id", coreerrors.ErrParseFailure, changeID)
	}
	return ids[len(ids)-1], nil
}

// SimplifyParents removes redundant parents from changeID after a
// multi-way merge.
func (m *Mutator) SimplifyParents(ctx context.Context, changeID string) error {
	if err := ValidateIdentifier(changeID); err != nil {
		return err
	}
	_, err := m.exec.Exec(ctx, "simplify-parents", "-r", changeID)
	if err != nil {
		return fmt.Errorf("%w: simplify-parents %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return nil
}

// EvologEntry is one entry in a change's rewrite history.
type EvologEntry struct {
	CommitID    string
	Description string
	Timestamp   time.Time
}

// Evolog returns the chronological rewrite history of changeID.
func (m *Mutator) Evolog(ctx context.Context, changeID string) ([]EvologEntry, error) {
	if err := ValidateIdentifier(changeID); err != nil {
		return nil, err
	}
	out, err := m.exec.Exec(ctx, "evolog", "-r", changeID, "--no-graph",
		"-T", `commit_id ++ "|" ++ description.first_line() ++ "|" ++ committer.timestamp().format("%Y-%m-%dT%H:%M:%S%:z") ++ "\n"`)
	if err != nil {
		return nil, fmt.Errorf("%w: evolog %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	var entries []EvologEntry
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 3 {
			continue // ParseFailure semantics: skip the malformed record
		}
		ts, parseErr := time.Parse("2006-01-02T15:04:05Z07:00", parts[2])
		if parseErr != nil {
			ts = time.Time{}
		}
		entries = append(entries, EvologEntry{
			CommitID:    parts[0],
			Description: parts[1],
			Timestamp:   ts,
		})
	}
	return entries, nil
}

var changeIDLineRe = regexp.MustCompile(`\b([0-9a-z]{8,40})\b`)

// extractChangeIDs filters stdout for change-id-shaped tokens rather
// than parsing positionally, so added lines from a newer DAG store
// version don't break the parse (§4.5).
func extractChangeIDs(out string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		matches := changeIDLineRe.FindAllStringSubmatch(line, -1)
		for _, match := range matches {
			ids = append(ids, match[1])
		}
	}
	return ids
}
