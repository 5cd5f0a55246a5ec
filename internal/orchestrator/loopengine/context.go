// Package loopengine drives a single task to completion using
// stateless iterations (C13): each iteration spawns a fresh agent with
// no retained conversation, deriving all state from the persisted
// handoff context and the current validator outcomes (§4.13).
package loopengine

import (
	"regexp"
	"strings"

	"github.com/steveyegge/beads/internal/orchestrator"
)

// contextFenceRe matches a fenced ```context ... ``` block anywhere in
// agent output (§6.3).
var contextFenceRe = regexp.MustCompile("(?s)```context\\s*\\n(.*?)```")

// ParseContextUpdate extracts the context-update block from agent
// output, per §6.3's grammar. ok is false when no well-formed block is
// present, in which case the caller keeps the previous context
// unchanged (§4.13's "context = parse_context_update(...) or
// context").
func ParseContextUpdate(output string) (hc orchestrator.HandoffContext, ok bool) {
	match := contextFenceRe.FindStringSubmatch(output)
	if match == nil {
		return orchestrator.HandoffContext{}, false
	}
	body := match[1]

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "FOCUS":
			hc.CurrentFocus = val
			ok = true
		case "PROGRESS":
			if val != "" {
				hc.Progress = append(hc.Progress, val)
				ok = true
			}
		case "NEXT":
			if val != "" {
				hc.NextSteps = append(hc.NextSteps, val)
				ok = true
			}
		case "BLOCKERS":
			if val != "" && !strings.EqualFold(val, "none") {
				for _, b := range strings.Split(val, "|") {
					b = strings.TrimSpace(b)
					if b != "" {
						hc.Blockers = append(hc.Blockers, b)
					}
				}
				ok = true
			}
		}
	}
	return hc, ok
}

// StopReason names why a loop iteration terminated before
// max_iterations, per §4.13.2.
type StopReason int

const (
	StopNone StopReason = iota
	StopAgentStop
	StopPromiseComplete
)

// DetectStopSignal scans agent output for the completion-signal
// grammar of §6.3: the legacy `[STOP]`/`[DONE]` markers, or the
// preferred `<promise>COMPLETE</promise>` tag.
func DetectStopSignal(output string) StopReason {
	if strings.Contains(output, "<promise>COMPLETE</promise>") {
		return StopPromiseComplete
	}
	if strings.Contains(output, "[STOP]") || strings.Contains(output, "[DONE]") {
		return StopAgentStop
	}
	return StopNone
}
