// Package statemachine implements the orchestrator's pure state
// machine (C12): a total function from (state, event) to (state,
// actions), with no I/O and no concurrency of its own. The interpreter
// that binds it to real agent spawns and DAG mutations lives in
// internal/orchestrator/loopengine and the orchestrator driver.
package statemachine

import "fmt"

// Phase names an orchestrator state without its payload.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlanning
	PhaseExecuting
	PhaseIntegrating
	PhaseValidating
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePlanning:
		return "Planning"
	case PhaseExecuting:
		return "Executing"
	case PhaseIntegrating:
		return "Integrating"
	case PhaseValidating:
		return "Validating"
	case PhaseComplete:
		return "Complete"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State is one of the seven named states of §4.12, carrying exactly
// the payload its phase defines. Fields irrelevant to the current
// Phase are left zero.
type State struct {
	Phase Phase

	Goal string // Planning

	ExecPhase   string   // Executing
	ActiveTasks []string // Executing

	IntegrationDesc string // Integrating

	ValidatingID string // Validating

	Summary string // Complete

	Error string // Failed
}

// Idle is the machine's initial state.
func Idle() State { return State{Phase: PhaseIdle} }

// Terminal reports whether state accepts no further events (Complete
// and Failed both reject everything, transitioning any further event
// straight back to Failed for auditability).
func (s State) Terminal() bool {
	return s.Phase == PhaseComplete || s.Phase == PhaseFailed
}

// EventKind names the events of §4.12's edge table.
type EventKind int

const (
	EventStartOrchestration EventKind = iota
	EventPlanningComplete
	EventPhaseComplete
	EventAllTasksComplete
	EventIntegrationConflict
	EventIntegrationClean
	EventValidationPassed
	EventValidationFailed
	EventError
)

// Event is a typed event with the payload its kind requires.
type Event struct {
	Kind EventKind

	Goal string // StartOrchestration

	TaskCount int // PlanningComplete

	ConflictDesc string // IntegrationConflict

	FailureReason string // ValidationFailed

	Message string // Error
}

// ActionKind names the side-effecting actions the interpreter (C13 and
// the orchestrator driver) must carry out; transition itself performs
// none of them.
type ActionKind int

const (
	ActionLog ActionKind = iota
	ActionSpawnPlanningAgent
	ActionSpawnTaskAgents
	ActionRecordPattern
	ActionResolveConflicts
	ActionSpawnValidator
)

// Action is one action the interpreter must perform, with whatever
// argument its kind needs.
type Action struct {
	Kind ActionKind
	Arg  string // RecordPattern("success"), ResolveConflicts(d), etc.
	N    int    // SpawnTaskAgents(n)
}

func logAction(msg string) Action { return Action{Kind: ActionLog, Arg: msg} }

// Transition is the pure function of §4.12: total over its inputs,
// never panics. Any (state, event) pair not named in the edge table —
// including every event sent to a terminal state — yields Failed with
// a descriptive error, preserving auditability of unexpected input.
func Transition(s State, e Event) (State, []Action) {
	if s.Terminal() {
		return fail(fmt.Sprintf("event %s sent to terminal state %s", eventName(e.Kind), s.Phase)), []Action{logAction("rejected event on terminal state")}
	}

	switch {
	case s.Phase == PhaseIdle && e.Kind == EventStartOrchestration:
		return State{Phase: PhasePlanning, Goal: e.Goal},
			[]Action{logAction("starting orchestration"), {Kind: ActionSpawnPlanningAgent}}

	case s.Phase == PhasePlanning && e.Kind == EventPlanningComplete && e.TaskCount == 0:
		return State{Phase: PhaseComplete, Summary: "no tasks planned"},
			[]Action{logAction("planning produced no tasks")}

	case s.Phase == PhasePlanning && e.Kind == EventPlanningComplete && e.TaskCount > 0:
		return State{Phase: PhaseExecuting, ExecPhase: "dispatch"},
			[]Action{logAction("planning complete"), {Kind: ActionSpawnTaskAgents, N: e.TaskCount}}

	case s.Phase == PhaseExecuting && e.Kind == EventPhaseComplete:
		return State{Phase: PhaseIntegrating},
			[]Action{logAction("phase complete"), {Kind: ActionRecordPattern}}

	case s.Phase == PhaseExecuting && e.Kind == EventAllTasksComplete:
		return State{Phase: PhaseIntegrating},
			[]Action{logAction("all tasks complete")}

	case s.Phase == PhaseIntegrating && e.Kind == EventIntegrationConflict:
		return State{Phase: PhaseIntegrating, IntegrationDesc: e.ConflictDesc},
			[]Action{logAction("integration conflict"), {Kind: ActionResolveConflicts, Arg: e.ConflictDesc}}

	case s.Phase == PhaseIntegrating && e.Kind == EventIntegrationClean:
		return State{Phase: PhaseValidating},
			[]Action{logAction("integration clean"), {Kind: ActionSpawnValidator}}

	case s.Phase == PhaseValidating && e.Kind == EventValidationPassed:
		return State{Phase: PhaseComplete, Summary: "validation passed"},
			[]Action{logAction("validation passed"), {Kind: ActionRecordPattern, Arg: "success"}}

	case s.Phase == PhaseValidating && e.Kind == EventValidationFailed:
		return fail(e.FailureReason), []Action{logAction("validation failed")}

	case e.Kind == EventError:
		return fail(e.Message), []Action{logAction("error: " + e.Message)}

	default:
		return fail(fmt.Sprintf("no transition for event %s from state %s", eventName(e.Kind), s.Phase)),
			[]Action{logAction("undefined transition")}
	}
}

func fail(reason string) State {
	return State{Phase: PhaseFailed, Error: reason}
}

func eventName(k EventKind) string {
	switch k {
	case EventStartOrchestration:
		return "StartOrchestration"
	case EventPlanningComplete:
		return "PlanningComplete"
	case EventPhaseComplete:
		return "PhaseComplete"
	case EventAllTasksComplete:
		return "AllTasksComplete"
	case EventIntegrationConflict:
		return "IntegrationConflict"
	case EventIntegrationClean:
		return "IntegrationClean"
	case EventValidationPassed:
		return "ValidationPassed"
	case EventValidationFailed:
		return "ValidationFailed"
	case EventError:
		return "Error"
	default:
		return "Unknown"
	}
}
