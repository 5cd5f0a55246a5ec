package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/beads/internal/orchestrator"
	"github.com/steveyegge/beads/internal/types"
)

var (
	updateStatus   string
	updatePriority string
	updateAgent    string
)

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update a task's metadata",
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateStatus == "" && updatePriority == "" && updateAgent == "" {
			return fmt.Errorf("%w: update requires at least one of --status, --priority, --agent", errUsage)
		}

		tm, err := newTaskManager()
		if err != nil {
			return err
		}

		err = tm.UpdateMetadata(cmdContext(), args[0], func(m *orchestrator.Metadata) {
			if updateStatus != "" {
				m.Status = types.Status(updateStatus)
			}
			if updatePriority != "" {
				m.Priority = types.ParsePriority(updatePriority)
			}
			if updateAgent != "" {
				m.Agent = updateAgent
			}
		})
		if err != nil {
			return fmt.Errorf("update task %s: %w", args[0], err)
		}

		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status")
	updateCmd.Flags().StringVar(&updatePriority, "priority", "", "new priority (critical|high|medium|low)")
	updateCmd.Flags().StringVar(&updateAgent, "agent", "", "new assignee")
	rootCmd.AddCommand(updateCmd)
}
