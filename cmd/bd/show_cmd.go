package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a task's full metadata and handoff context",
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTaskManager()
		if err != nil {
			return err
		}

		task, err := tm.LoadTask(cmdContext(), args[0])
		if err != nil {
			return fmt.Errorf("load task %s: %w", args[0], err)
		}

		fmt.Printf("%s  %s\n", task.ChangeID, task.Title)
		fmt.Printf("  status:       %s\n", task.Metadata.Status)
		fmt.Printf("  priority:     %s\n", task.Metadata.Priority)
		fmt.Printf("  agent:        %s\n", task.Metadata.Agent)
		if task.Metadata.Orchestrator != "" {
			fmt.Printf("  orchestrator: %s\n", task.Metadata.Orchestrator)
		}
		if task.Handoff.CurrentFocus != "" {
			fmt.Printf("  focus:        %s\n", task.Handoff.CurrentFocus)
		}
		printList("  progress:     ", task.Handoff.Progress)
		printList("  next steps:   ", task.Handoff.NextSteps)
		printList("  blockers:     ", task.Handoff.Blockers)
		printList("  files:        ", task.Handoff.FilesTouched)
		printList("  decisions:    ", task.Handoff.Decisions)
		return nil
	},
}

func printList(label string, items []string) {
	for i, item := range items {
		if i == 0 {
			fmt.Printf("%s%s\n", label, item)
		} else {
			fmt.Printf("%*s%s\n", len(label), "", item)
		}
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
}
