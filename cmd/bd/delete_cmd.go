package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Abandon a task",
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTaskManager()
		if err != nil {
			return err
		}

		if err := tm.DeleteTask(cmdContext(), args[0], deleteForce); err != nil {
			return fmt.Errorf("delete task %s: %w", args[0], err)
		}

		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}
