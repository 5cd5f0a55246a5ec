package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steveyegge/beads/internal/orchestrator"
	"github.com/steveyegge/beads/internal/types"
)

var (
	listStatus string
	listLabel  string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTaskManager()
		if err != nil {
			return err
		}

		tasks, err := tm.AllTasks(cmdContext())
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}

		colorize := term.IsTerminal(int(os.Stdout.Fd()))
		for _, task := range filterTasks(tasks, listStatus, listLabel) {
			fmt.Printf("%s  [%s]  %s  %s\n", task.ChangeID, statusLabel(task.Metadata.Status, colorize), task.Metadata.Priority, task.Title)
		}
		return nil
	},
}

// statusLabel renders a status, dimming it when stdout is a terminal
// (\x1b[2m); piped output stays plain so downstream tools see the bare
// status string.
func statusLabel(status types.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	return "\x1b[2m" + string(status) + "\x1b[0m"
}

// filterTasks applies the optional --status/--label filters client-side:
// revsets already narrow by bookmark glob, and these two remaining
// filters are predicates over already-loaded metadata, not worth a
// second DAG-store round trip for.
func filterTasks(tasks []*orchestrator.Task, status, label string) []*orchestrator.Task {
	if status == "" && label == "" {
		return tasks
	}
	var out []*orchestrator.Task
	for _, t := range tasks {
		if status != "" && string(t.Metadata.Status) != status {
			continue
		}
		if label != "" && !hasLabel(t, label) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// hasLabel reports whether task carries label among its unrecognized
// metadata keys — the label set isn't one of the recognized description
// fields (§3), so it round-trips through Metadata.Unknown.
func hasLabel(t *orchestrator.Task, label string) bool {
	_, ok := t.Metadata.Unknown["Label-"+label]
	return ok
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status")
	listCmd.Flags().StringVarP(&listLabel, "label", "l", "", "filter by label")
	rootCmd.AddCommand(listCmd)
}
