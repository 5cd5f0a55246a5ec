package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/beads/internal/orchestrator"
)

var newDescription string

var newCmd = &cobra.Command{
	Use:     "new <title>",
	Short:   "Create a new task",
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTaskManager()
		if err != nil {
			return err
		}

		m := orchestrator.NewMetadata()
		task, err := tm.CreateTask(cmdContext(), args[0], m)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		if newDescription != "" {
			hc := orchestrator.HandoffContext{CurrentFocus: newDescription}
			if err := tm.UpdateHandoff(cmdContext(), task.ChangeID, hc); err != nil {
				return fmt.Errorf("set description: %w", err)
			}
		}

		fmt.Printf("Created %s (%s): %s\n", task.ChangeID, task.Bookmark, task.Title)
		return nil
	},
}

func init() {
	newCmd.Flags().StringVarP(&newDescription, "description", "d", "", "task description")
	rootCmd.AddCommand(newCmd)
}
