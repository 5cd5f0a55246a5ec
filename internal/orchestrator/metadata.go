// Package orchestrator implements the DAG-store-native core: the
// metadata codec (C4), bookmark manager (C3), revset query layer (C2),
// DAG mutation operations (C5), and handoff-context plumbing that the
// loop engine (internal/orchestrator/loopengine) builds on.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	coreerrors "github.com/steveyegge/beads/internal/core/errors"
	"github.com/steveyegge/beads/internal/types"
)

// JJExecutor is the one-method capability set C1 specifies: run a DAG
// store command and return its stdout, or an error. Every package in
// this tree depends on this interface rather than the concrete vcs.VCS
// so that tests substitute internal/vcs/mock.Executor directly.
type JJExecutor interface {
	Exec(ctx context.Context, args ...string) ([]byte, error)
}

// Metadata key names as they appear verbatim in a change description
// (§3 metadata table). Case-sensitive, one per line.
const (
	keyPriority      = "Priority"
	keyStatus        = "Status"
	keyAgent         = "Agent"
	keyOrchestrator  = "Orchestrator"
	keyMsgTo         = "Msg-To"
	keyMsgType       = "Msg-Type"
	keyLoopIteration = "Loop-Iteration"
	keyBackpressure  = "Backpressure-Status"
)

// recognizedKeys lists the keys FormatDescription always re-emits, in
// the order it emits them, so the on-disk encoding is stable across a
// read-modify-write cycle.
var recognizedKeys = []string{
	keyPriority, keyStatus, keyAgent, keyOrchestrator,
	keyMsgTo, keyMsgType, keyLoopIteration, keyBackpressure,
}

// Metadata is the parsed form of the key:value lines embedded in a
// change description.
type Metadata struct {
	Priority      types.Priority
	Status        types.Status
	Agent         string // "unassigned" when absent
	Orchestrator  string
	MsgTo         string
	MsgType       string
	LoopIteration int    // 0 means absent
	Backpressure  string // empty means absent; loop-engine defined values

	// Unknown preserves any key:value line this version doesn't
	// recognize, keyed by the raw key, so a read-modify-write cycle
	// never drops information another tool wrote (P3).
	Unknown map[string]string
}

// NewMetadata returns defaults matching a freshly created task: open,
// medium priority, unassigned.
func NewMetadata() Metadata {
	return Metadata{
		Priority: types.PriorityMedium,
		Status:   types.StatusOpen,
		Agent:    "unassigned",
		Unknown:  map[string]string{},
	}
}

// FormatDescription renders title plus metadata into the change
// description text, in the stable order recognizedKeys defines.
// Unknown keys are appended after the recognized ones, sorted by
// first-seen order is not guaranteed (map), but their presence is.
func FormatDescription(title string, m Metadata) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	values := map[string]string{
		keyPriority:     m.Priority.String(),
		keyStatus:       string(m.Status),
		keyAgent:        m.Agent,
		keyOrchestrator: m.Orchestrator,
		keyMsgTo:        m.MsgTo,
		keyMsgType:      m.MsgType,
	}
	if m.LoopIteration > 0 {
		values[keyLoopIteration] = strconv.Itoa(m.LoopIteration)
	}
	if m.Backpressure != "" {
		values[keyBackpressure] = m.Backpressure
	}

	for _, key := range recognizedKeys {
		val, ok := values[key]
		if !ok || val == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, val)
	}
	for key, val := range m.Unknown {
		fmt.Fprintf(&b, "%s: %s\n", key, val)
	}

	return b.String()
}

// ParseDescription splits a change description into its free-form
// title (the first line, plus any further lines before the first
// key:value line) and
// the parsed Metadata. Unknown key:value lines are preserved verbatim
// so a later FormatDescription round-trips them (P3).
func ParseDescription(description string) (title string, m Metadata) {
	m = NewMetadata()
	m.Unknown = map[string]string{}

	lines := strings.Split(description, "\n")
	var titleLines []string
	inBody := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		key, val, isKV := splitKeyValue(trimmed)
		if !isKV || i == 0 {
			if !inBody {
				titleLines = append(titleLines, line)
			}
			continue
		}
		inBody = true

		switch key {
		case keyPriority:
			m.Priority = types.ParsePriority(val)
		case keyStatus:
			m.Status = types.Status(val)
		case keyAgent:
			m.Agent = val
		case keyOrchestrator:
			m.Orchestrator = val
		case keyMsgTo:
			m.MsgTo = val
		case keyMsgType:
			m.MsgType = val
		case keyLoopIteration:
			if n, err := strconv.Atoi(val); err == nil {
				m.LoopIteration = n
			}
		case keyBackpressure:
			m.Backpressure = val
		default:
			m.Unknown[key] = val
		}
	}

	title = strings.TrimSpace(strings.Join(titleLines, "\n"))
	return title, m
}

// splitKeyValue recognizes a "Key: value" line using the same
// recognized-key set FormatDescription writes, plus any "Word-Word:
// value" shaped line as an unknown key candidate. Lines that don't
// look like "Identifier: value" are not key:value lines at all (this
// is what keeps a line like "Fix the parser: details" from being
// misread, since unknown-key detection requires the key to contain no
// spaces).
func splitKeyValue(line string) (key, val string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	candidate := strings.TrimSpace(line[:idx])
	if candidate == "" || strings.ContainsAny(candidate, " \t") {
		return "", "", false
	}
	for _, k := range recognizedKeys {
		if candidate == k {
			return k, strings.TrimSpace(line[idx+1:]), true
		}
	}
	// Unknown key: require it to look like an identifier (letters,
	// digits, hyphen, underscore) so prose with other punctuation before
	// the colon ("e.g.: an example") is not swallowed as metadata.
	if isIdentifierLike(candidate) {
		return candidate, strings.TrimSpace(line[idx+1:]), true
	}
	return "", "", false
}

func isIdentifierLike(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// ReadMetadata executes a no-graph log query with template
// "description" and parses the metadata out, per C4's contract.
func ReadMetadata(ctx context.Context, exec JJExecutor, changeID string) (title string, m Metadata, err error) {
	out, err := exec.Exec(ctx, "log", "-r", changeID, "--no-graph", "-T", "description")
	if err != nil {
		return "", Metadata{}, fmt.Errorf("%w: read description for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	title, m = ParseDescription(string(out))
	return title, m, nil
}

// WriteMetadata rewrites the change description via `describe -r ... -m
// ...`, preserving the title and re-encoding the metadata in stable
// order. The metadata manager performs no locking of its own: the
// underlying DAG store's working-copy lock serializes concurrent
// writers (§4.4).
func WriteMetadata(ctx context.Context, exec JJExecutor, changeID, title string, m Metadata) error {
	description := FormatDescription(title, m)
	_, err := exec.Exec(ctx, "describe", "-r", changeID, "-m", description)
	if err != nil {
		return fmt.Errorf("%w: write description for %s: %v", coreerrors.ErrDagStoreCommand, changeID, err)
	}
	return nil
}
