package loopengine

import (
	"fmt"
	"strings"

	"github.com/steveyegge/beads/internal/orchestrator"
)

// BackpressureSnapshot is the three-flag validation status §4.13.1's
// prompt section reports, and the value persisted as
// Metadata.Backpressure (C4) between iterations.
type BackpressureSnapshot struct {
	Enabled    bool
	AllPassed  bool
	FailedText string // raw, fenced error output from the failing validators
}

// Snapshot renders bp as the single-line status string persisted into
// Metadata.Backpressure (§4.13's "context.backpressure_status =
// snapshot(backpressure)").
func (bp BackpressureSnapshot) Snapshot() string {
	if !bp.Enabled {
		return "disabled"
	}
	if bp.AllPassed {
		return "pass"
	}
	return "fail"
}

// fileOpGrammar is the fixed XML grammar of §6.3, repeated verbatim in
// every prompt so the agent's output can be parsed deterministically.
const fileOpGrammar = `<write_to_file>
  <path>RELATIVE/PATH</path>
  <content>FILE BODY</content>
</write_to_file>

<capture_screenshot>
  <url>URL</url>
  <name>NAME</name>
  <selector>CSS</selector>   ; optional
</capture_screenshot>`

// contextUpdateGrammar is the fixed context-update template of §6.3.
const contextUpdateGrammar = "```context\nFOCUS: <one line>\nPROGRESS: <0..N lines, one per PROGRESS: prefix>\nNEXT: <0..N lines, one per NEXT: prefix>\nBLOCKERS: <blocker>|...|none\n```"

// BuildPrompt assembles the six fixed sections of §4.13.1, in order:
// task description, current context, validation status, errors to
// fix, file-operation instructions, and the objective plus
// context-update/completion-signal grammar. Section headers never
// change across iterations so ParseContextUpdate and DetectStopSignal
// can round-trip reliably.
func BuildPrompt(task *orchestrator.Task, hc orchestrator.HandoffContext, bp BackpressureSnapshot, iteration, maxIterations int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Task\n%s\n\n", task.Title)

	b.WriteString("# Current Context\n")
	if hc.CurrentFocus != "" {
		fmt.Fprintf(&b, "Focus: %s\n\n", hc.CurrentFocus)
	}
	writeChecklist(&b, "Progress", hc.Progress, "[x]")
	writeChecklist(&b, "Next steps", hc.NextSteps, "[ ]")
	if len(hc.Blockers) == 0 {
		b.WriteString("Blockers: none\n\n")
	} else {
		b.WriteString("Blockers:\n")
		for _, blocker := range hc.Blockers {
			fmt.Fprintf(&b, "- %s\n", blocker)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Validation Status\n")
	fmt.Fprintf(&b, "enabled=%t all_passed=%t iteration=%d/%d\n\n", bp.Enabled, bp.AllPassed, iteration, maxIterations)

	b.WriteString("# Errors To Fix\n")
	if bp.FailedText == "" {
		b.WriteString("(none)\n\n")
	} else {
		fmt.Fprintf(&b, "```\n%s\n```\n\n", bp.FailedText)
	}

	fmt.Fprintf(&b, "# File Operations\nEmit zero or more of the following blocks to create or modify files:\n\n%s\n\n", fileOpGrammar)

	fmt.Fprintf(&b, "# Objective\nMake concrete progress on the task above. Before finishing this turn, emit a context-update block reporting your state:\n\n%s\n\nSignal completion with `[STOP]`, `[DONE]`, or (preferred) `<promise>COMPLETE</promise>` when no further iterations are needed.\n", contextUpdateGrammar)

	return b.String()
}

func writeChecklist(b *strings.Builder, header string, items []string, mark string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", header)
	for _, item := range items {
		fmt.Fprintf(b, "- %s %s\n", mark, item)
	}
	b.WriteString("\n")
}
