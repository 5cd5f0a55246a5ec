package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/beads/internal/cache/sync"
	"github.com/steveyegge/beads/internal/vcs"
	"github.com/steveyegge/beads/internal/vcs/jj"
)

var (
	syncExport bool
	syncSince  string
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Sync the query cache with the task store",
	Args:    cobra.NoArgs,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		database, err := openCache()
		if err != nil {
			return err
		}
		defer database.Close()

		syncer := sync.New(database, newLogger("[sync] ", cfg))
		tasksDir := filepath.Join(flagRepo, "tasks")
		depsDir := filepath.Join(flagRepo, "deps")

		var result sync.Result
		switch {
		case syncExport:
			result, err = syncer.ExportAll(tasksDir, depsDir)
		case syncSince != "":
			v, rerr := vcs.GetForPath(flagRepo)
			if rerr != nil {
				return fmt.Errorf("open repository at %s: %w", flagRepo, rerr)
			}
			repo, ok := v.(*jj.JJ)
			if !ok {
				return fmt.Errorf("sync --since requires a jj repository, got %s", v.Name())
			}
			result, err = syncer.SyncChanged(cmdContext(), repo, syncSince)
		default:
			result, err = syncer.FullSync(tasksDir, depsDir)
		}
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}

		fmt.Printf("tasks: %d synced, %d failed\n", result.TasksSynced, result.TasksFailed)
		fmt.Printf("deps:  %d synced, %d failed\n", result.DepsSynced, result.DepsFailed)
		if result.Deleted > 0 {
			fmt.Printf("deleted: %d\n", result.Deleted)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncExport, "export", false, "export cache rows back to tasks/deps JSON files")
	syncCmd.Flags().StringVar(&syncSince, "since", "", "sync only what changed since this revision")
	rootCmd.AddCommand(syncCmd)
}
