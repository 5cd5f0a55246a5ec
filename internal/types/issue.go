// Package types defines the data model shared across the orchestration
// engine: tasks (issues), their dependencies, and the vocabulary each
// field is drawn from. It has no dependency on vcs, cache, or any other
// internal package so that every other package can depend on it freely.
package types

import "time"

// Priority is the total order over task urgency. Lower numeric value
// means higher urgency.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 1
	PriorityMedium   Priority = 2
	PriorityLow      Priority = 3
)

// String renders the priority using the description-metadata vocabulary.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "medium"
	}
}

// ParsePriority parses the description-metadata vocabulary, defaulting
// to PriorityMedium for unrecognized input.
func ParsePriority(s string) Priority {
	switch s {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Status is a task's lifecycle stage (§3 metadata table).
type Status string

const (
	StatusOpen        Status = "open"
	StatusInProgress  Status = "in_progress"
	StatusBlocked     Status = "blocked"
	StatusReview      Status = "review"
	StatusDone        Status = "done"
	StatusAbandoned   Status = "abandoned"
)

// Closed reports whether a task in this status can never again appear
// as a blocker in the blocked-task index (invariant I3).
func (s Status) Closed() bool {
	return s == StatusDone || s == StatusAbandoned
}

// IssueType is the kind of work item.
type IssueType string

const (
	IssueTypeTask    IssueType = "task"
	IssueTypeBug     IssueType = "bug"
	IssueTypeFeature IssueType = "feature"
	IssueTypeEpic    IssueType = "epic"
	IssueTypeChore   IssueType = "chore"
)

// DependencyType names the edge relation between two issues. "blocks"
// is privileged: it is the only type consulted by the blocked-task
// index (C10). All other values are free-form and carried through
// unchanged.
type DependencyType string

const (
	DependencyBlocks   DependencyType = "blocks"
	DependencyRelates  DependencyType = "relates_to"
	DependencyParent   DependencyType = "parent_of"
	DependencyDiscover DependencyType = "discovered_from"
)

// IsValid reports whether d is one of the recognized dependency-type
// vocabulary values.
func (d DependencyType) IsValid() bool {
	switch d {
	case DependencyBlocks, DependencyRelates, DependencyParent, DependencyDiscover:
		return true
	default:
		return false
	}
}

// Issue is the canonical in-memory representation of a task node. It
// is the superset that both the description-embedded metadata (C4) and
// the tasks/{id}.json sync artifact (§6.2) are projections of. The json
// tags are what both the jsonl migration stream and the per-issue sync
// files on disk serialize to.
type Issue struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	IssueType    IssueType  `json:"issue_type"`
	Status       Status     `json:"status"`
	Priority     int        `json:"priority"` // 0..4, wider than Priority's 0..3 to match §3's task-file range
	Assignee     string     `json:"assignee,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	DeferUntil   *time.Time `json:"defer_until,omitempty"`

	// Orchestrator is the owning orchestrator id (§3 metadata table),
	// empty when the task has no orchestrator.
	Orchestrator string `json:"orchestrator,omitempty"`

	// DeletedAt marks this record as an inline tombstone in an
	// append-only JSONL migration stream: the issue was deleted but the
	// record is retained (with its original timestamps) rather than
	// removed from the log.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// SetDefaults fills optional fields with the conventional defaults used
// throughout the sync pipeline (C8) and the migration path.
func (i *Issue) SetDefaults() {
	if i.Status == "" {
		i.Status = StatusOpen
	}
	if i.IssueType == "" {
		i.IssueType = IssueTypeTask
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}
}

// IsTombstone reports whether this record represents a deletion marker
// rather than live task data; migration consumers skip tombstones.
func (i *Issue) IsTombstone() bool {
	return i.DeletedAt != nil
}

// MarkTombstone flags this issue as a deletion marker.
func (i *Issue) MarkTombstone() {
	now := time.Now()
	i.DeletedAt = &now
}

// Dependency is a directed edge between two issues.
type Dependency struct {
	IssueID     string         `json:"issue_id"`      // the dependent ("from")
	DependsOnID string         `json:"depends_on_id"` // the dependency ("to")
	Type        DependencyType `json:"type"`
	CreatedAt   time.Time      `json:"created_at"`
}
