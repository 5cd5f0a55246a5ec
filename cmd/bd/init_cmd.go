package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/beads/internal/vcs/jj"
)

var initCmd = &cobra.Command{
	Use:     "init [path]",
	Short:   "Initialize a jj repository for task tracking",
	Args:    cobra.MaximumNArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := jj.Init(path, true); err != nil {
			return fmt.Errorf("initialize repository at %s: %w", path, err)
		}
		fmt.Printf("Initialized jj repository at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
