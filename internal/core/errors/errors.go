// Package errors implements the error taxonomy of §7: a sentinel-error
// and classifier idiom, modeled directly on internal/vcs/errors.go's
// ErrNotInVCS/IsRetryable/IsUserActionRequired/IsFatal pattern. Every
// core package wraps its failures in one of these sentinels so that
// callers can classify an error without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one family per §7 taxonomy row.
var (
	// ErrNotARepo is returned by C1 when the working directory is not a
	// DAG-store repository.
	ErrNotARepo = errors.New("not a repository")

	// ErrDagStoreCommand wraps a failed DAG-store invocation; use
	// DagStoreCommandError for the structured form carrying exit code
	// and stderr.
	ErrDagStoreCommand = errors.New("dag store command failed")

	// ErrParseFailure is returned by C2/C4/C6 when a record could not be
	// parsed; callers skip the record and continue rather than abort
	// the batch.
	ErrParseFailure = errors.New("parse failure")

	// ErrValidation is returned by C4/C15 when a write is rejected
	// before it reaches the DAG store or filesystem.
	ErrValidation = errors.New("validation failed")

	// ErrConflictResidual is returned by C16 when a conflict could not
	// be auto-resolved and was promoted to human review.
	ErrConflictResidual = errors.New("conflict requires human review")

	// ErrCacheConsistency is returned by C9/C10 when an invariant
	// violation is detected; the caller must abort the transaction and
	// schedule a full re-sync.
	ErrCacheConsistency = errors.New("cache consistency violation")

	// ErrWatcherFailure is returned by C6/C7 on watcher-level failures;
	// non-fatal, caller-level recovery may restart the watcher.
	ErrWatcherFailure = errors.New("watcher failure")

	// ErrAgentAPI is returned by the external agent client.
	ErrAgentAPI = errors.New("agent api error")

	// ErrTimeout is returned by C14 when a validator check exceeds its
	// configured timeout.
	ErrTimeout = errors.New("timeout")

	// ErrWorkingCopyLocked is a transient DagStoreCommand sub-case:
	// the DAG store's own lock is held by a concurrent writer. Retryable
	// with bounded backoff.
	ErrWorkingCopyLocked = errors.New("working copy locked")
)

// DagStoreCommandError is the structured form of ErrDagStoreCommand,
// carrying the subprocess exit code and captured stderr.
type DagStoreCommandError struct {
	Code   int
	Stderr string
}

func (e *DagStoreCommandError) Error() string {
	return fmt.Sprintf("dag store command failed (exit %d): %s", e.Code, e.Stderr)
}

func (e *DagStoreCommandError) Unwrap() error {
	return ErrDagStoreCommand
}

// AgentAPIKind distinguishes the three external-agent-API failure
// shapes named in §7, each with a different retry policy.
type AgentAPIKind int

const (
	AgentAPIRateLimit AgentAPIKind = iota
	AgentAPIServer
	AgentAPIAuth
)

// AgentAPIError is the structured form of ErrAgentAPI.
type AgentAPIError struct {
	Kind    AgentAPIKind
	Message string
}

func (e *AgentAPIError) Error() string {
	return fmt.Sprintf("agent api error (%v): %s", e.Kind, e.Message)
}

func (e *AgentAPIError) Unwrap() error {
	return ErrAgentAPI
}

// IsRetryable reports whether the caller should retry the operation
// that produced err, per §7's policy column.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrWorkingCopyLocked) {
		return true
	}
	var agentErr *AgentAPIError
	if errors.As(err, &agentErr) {
		return agentErr.Kind == AgentAPIRateLimit || agentErr.Kind == AgentAPIServer
	}
	return false
}

// IsUserActionRequired reports whether err requires the caller (a
// human or the CLI) to act before the system can proceed, e.g. the
// repository needs initializing or a conflict needs human review.
func IsUserActionRequired(err error) bool {
	if errors.Is(err, ErrNotARepo) {
		return true
	}
	if errors.Is(err, ErrConflictResidual) {
		return true
	}
	var agentErr *AgentAPIError
	if errors.As(err, &agentErr) {
		return agentErr.Kind == AgentAPIAuth
	}
	return false
}

// IsFatal reports whether err should abort the current operation
// entirely rather than being logged and skipped.
func IsFatal(err error) bool {
	if errors.Is(err, ErrCacheConsistency) {
		return true
	}
	if errors.Is(err, ErrValidation) {
		return true
	}
	var agentErr *AgentAPIError
	if errors.As(err, &agentErr) {
		return agentErr.Kind == AgentAPIAuth
	}
	return false
}
