package orchestrator

import (
	"context"
	"fmt"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// changeIDTemplate is the one template every ID-producing query shares
// (§4.2: "all ID-producing queries share one parser and share one
// template so that parse bugs cannot diverge between call sites").
const changeIDTemplate = `change_id ++ "\n"`

// RevsetQueries composes and runs the named revset queries of §4.2 over
// a JJExecutor, parsing every result through queryChangeIDs.
type RevsetQueries struct {
	exec JJExecutor
}

// NewRevsetQueries wraps exec for revset queries.
func NewRevsetQueries(exec JJExecutor) *RevsetQueries {
	return &RevsetQueries{exec: exec}
}

// queryChangeIDs runs `log -r <revset> --no-graph -T <changeIDTemplate>`
// and parses the output into a slice of change-ids. This is the single
// shared parser every other method in this file calls.
func (q *RevsetQueries) queryChangeIDs(ctx context.Context, revset string) ([]string, error) {
	out, err := q.exec.Exec(ctx, "log", "-r", revset, "--no-graph", "-T", changeIDTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: revset query %q: %v", coreerrors.ErrDagStoreCommand, revset, err)
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

// ReadyTasks: heads(bookmarks(glob:"task/*")) - conflicts() - ancestors(conflicts())
func (q *RevsetQueries) ReadyTasks(ctx context.Context) ([]string, error) {
	revset := `heads(bookmarks(glob:"task/*")) ~ conflicts() ~ ancestors(conflicts())`
	return q.queryChangeIDs(ctx, revset)
}

// BlockedTasks: bookmarks(glob:"task-*") & descendants(mutable())
func (q *RevsetQueries) BlockedTasks(ctx context.Context) ([]string, error) {
	revset := `bookmarks(glob:"task-*") & descendants(mutable())`
	return q.queryChangeIDs(ctx, revset)
}

// AgentActiveWork: bookmarks(glob:"agent/{name}/*") & ~description(glob:"Status: done")
func (q *RevsetQueries) AgentActiveWork(ctx context.Context, agentName string) ([]string, error) {
	if err := ValidateIdentifier(agentName); err != nil {
		return nil, err
	}
	revset := fmt.Sprintf(`bookmarks(glob:"agent/%s/*") & ~description(glob:"Status: done")`, agentName)
	return q.queryChangeIDs(ctx, revset)
}

// Parallelizable: heads(mutable()) & ~merges() & ~conflicts()
func (q *RevsetQueries) Parallelizable(ctx context.Context) ([]string, error) {
	return q.queryChangeIDs(ctx, `heads(mutable()) & ~merges() & ~conflicts()`)
}

// ConflictSet: conflicts()
func (q *RevsetQueries) ConflictSet(ctx context.Context) ([]string, error) {
	return q.queryChangeIDs(ctx, `conflicts()`)
}

// Ancestors returns the mutable ancestors of changeID.
func (q *RevsetQueries) Ancestors(ctx context.Context, changeID string) ([]string, error) {
	if err := ValidateIdentifier(changeID); err != nil {
		return nil, err
	}
	revset := fmt.Sprintf(`ancestors(%s) & mutable()`, changeID)
	return q.queryChangeIDs(ctx, revset)
}

// Descendants returns the mutable descendants of changeID.
func (q *RevsetQueries) Descendants(ctx context.Context, changeID string) ([]string, error) {
	if err := ValidateIdentifier(changeID); err != nil {
		return nil, err
	}
	revset := fmt.Sprintf(`descendants(%s) & mutable()`, changeID)
	return q.queryChangeIDs(ctx, revset)
}

// TouchingFile returns changes whose diff touches path.
func (q *RevsetQueries) TouchingFile(ctx context.Context, path string) ([]string, error) {
	revset := fmt.Sprintf(`file(%q)`, path)
	return q.queryChangeIDs(ctx, revset)
}

// Present is the safe-presence test: returns true iff id names a
// change that exists, without erroring when it doesn't (`present({id})`).
func (q *RevsetQueries) Present(ctx context.Context, id string) (bool, error) {
	if err := ValidateIdentifier(id); err != nil {
		return false, err
	}
	revset := fmt.Sprintf(`present(%s)`, id)
	ids, err := q.queryChangeIDs(ctx, revset)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// ConnectedComponent returns the connected component containing id.
func (q *RevsetQueries) ConnectedComponent(ctx context.Context, id string) ([]string, error) {
	if err := ValidateIdentifier(id); err != nil {
		return nil, err
	}
	revset := fmt.Sprintf(`connected(%s)`, id)
	return q.queryChangeIDs(ctx, revset)
}

// Latest returns the N most recent changes matching revset.
func (q *RevsetQueries) Latest(ctx context.Context, revset string, n int) ([]string, error) {
	wrapped := fmt.Sprintf(`latest(%s, %d)`, revset, n)
	return q.queryChangeIDs(ctx, wrapped)
}

// AllTasks: bookmarks(glob:"task/*") — every change ever marked as a
// task, regardless of status or assignment.
func (q *RevsetQueries) AllTasks(ctx context.Context) ([]string, error) {
	return q.queryChangeIDs(ctx, `bookmarks(glob:"task/*")`)
}

// UnassignedTasks returns task bookmarks with no corresponding
// agent/*/task/{id} assignment bookmark.
func (q *RevsetQueries) UnassignedTasks(ctx context.Context, bookmarks *BookmarkManager) ([]string, error) {
	ready, err := q.queryChangeIDs(ctx, `bookmarks(glob:"task/*")`)
	if err != nil {
		return nil, err
	}
	assigned, err := bookmarks.list(ctx, `glob:agent/*/task/*`)
	if err != nil {
		return nil, err
	}
	assignedIDs := make(map[string]bool, len(assigned))
	for _, l := range assigned {
		assignedIDs[shortID(l.changeID)] = true
	}
	var out []string
	for _, id := range ready {
		if !assignedIDs[shortID(id)] {
			out = append(out, id)
		}
	}
	return out, nil
}
