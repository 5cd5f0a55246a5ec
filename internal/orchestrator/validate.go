package orchestrator

import (
	"fmt"
	"regexp"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
)

// identifierRe matches the characters a change-id, bookmark name, or
// agent name may legally contain: this is deliberately conservative
// (letters, digits, '-', '_', '.', '/') so that no substitution into a
// revset string can introduce revset syntax (parentheses, '&', '|',
// '~', quotes, whitespace) or shell metacharacters (§4.2: "all input
// identifiers and revsets must pass the identifier/revset validator
// before substitution").
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_./-]+$`)

// ValidateIdentifier rejects any string unsafe to substitute into a
// revset expression or bookmark name.
func ValidateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty identifier", coreerrors.ErrValidation)
	}
	if !identifierRe.MatchString(s) {
		return fmt.Errorf("%w: identifier %q contains disallowed characters", coreerrors.ErrValidation, s)
	}
	return nil
}

// globSafeRe additionally allows a single trailing "*" for the glob
// patterns C2/C3 build (bookmarks(glob:"task/*") and friends).
var globSafeRe = regexp.MustCompile(`^[A-Za-z0-9_./-]*\*?$`)

// ValidateGlobSegment rejects a path segment used inside a glob:"..."
// revset function argument; only a single trailing '*' is permitted,
// matching the "Glob semantics are * only" rule of §4.3.
func ValidateGlobSegment(s string) error {
	if !globSafeRe.MatchString(s) {
		return fmt.Errorf("%w: glob segment %q contains disallowed characters", coreerrors.ErrValidation, s)
	}
	return nil
}
