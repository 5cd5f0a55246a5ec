package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/beads/internal/cache/daemon"
)

var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	Short:   "Run the sync daemon, watching task/dep files into the query cache",
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

		release, err := acquireDaemonLock(filepath.Join(flagRepo, ".beads", "daemon.lock"))
		if err != nil {
			return fmt.Errorf("acquire daemon lock: %w", err)
		}
		defer release()

		dcfg := daemon.DefaultConfig()
		dcfg.DebounceInterval = cfg.DebounceInterval
		dcfg.Logger = newLogger("[daemon] ", cfg)

		d, err := daemon.NewWithConfig(database, filepath.Join(flagRepo, "tasks"), filepath.Join(flagRepo, "deps"), dcfg)
		if err != nil {
			return fmt.Errorf("create daemon: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmdContext(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !daemonForeground {
			dcfg.Logger.Println("daemon has no detach mode in this build; running in foreground")
		}

		return d.Start(ctx)
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "run without detaching (default behavior)")
	rootCmd.AddCommand(daemonCmd)
}
