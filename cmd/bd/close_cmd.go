package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeComment string

var closeCmd = &cobra.Command{
	Use:     "close <id>",
	Short:   "Mark a task done",
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTaskManager()
		if err != nil {
			return err
		}

		if err := tm.CloseTask(cmdContext(), args[0], closeComment); err != nil {
			return fmt.Errorf("close task %s: %w", args[0], err)
		}

		fmt.Printf("Closed %s\n", args[0])
		return nil
	},
}

func init() {
	closeCmd.Flags().StringVarP(&closeComment, "comment", "c", "", "final decision or note")
	rootCmd.AddCommand(closeCmd)
}
