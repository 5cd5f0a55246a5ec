package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/steveyegge/beads/internal/cache/db"
	"github.com/steveyegge/beads/internal/config"
	"github.com/steveyegge/beads/internal/orchestrator"
	"github.com/steveyegge/beads/internal/vcs"
)

// errUsage marks an error as an argument/usage problem (§6.4: exit code
// 2), distinct from an expected runtime failure (exit code 1).
var errUsage = errors.New("usage error")

var (
	flagRepo    string
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "bd",
	Short:         "bd manages tasks tracked as jj changes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Task commands:"},
		&cobra.Group{ID: "sync", Title: "Cache & sync commands:"},
	)
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", ".", "repository root")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", ".beads/config.toml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug-level logging")
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

// loadConfig resolves flagConfig relative to flagRepo and loads it,
// falling back to defaults when the file doesn't exist. --verbose always
// wins over whatever the file or environment set.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if !filepath.IsAbs(path) {
		path = filepath.Join(flagRepo, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if flagVerbose {
		cfg.LogVerbosity = "debug"
	}
	return cfg, nil
}

// newLogger builds the component-prefixed stderr logger every
// long-running component takes, rotated through lumberjack when the
// config names a log file (§1's ambient logging stack).
func newLogger(prefix string, cfg config.Config) *log.Logger {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, prefix, log.LstdFlags)
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}
	return log.New(rotator, prefix, log.LstdFlags)
}

// newTaskManager detects and opens the repository at flagRepo through
// the vcs abstraction and wraps it in a TaskManager, the entry point
// every task-lifecycle command shares. Detection picks jj over git in
// colocated repos (vcs.PreferredVCS's default); beads has nothing to
// say to a git-only checkout, so that case surfaces as an open error.
func newTaskManager() (*orchestrator.TaskManager, error) {
	repo, err := vcs.GetForPath(flagRepo)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", flagRepo, err)
	}
	if repo.Name() != vcs.TypeJJ {
		return nil, fmt.Errorf("%s at %s is not a jj repository; run `bd init` first", repo.Name(), flagRepo)
	}
	if err := checkJJVersion(repo); err != nil {
		return nil, err
	}
	return orchestrator.NewTaskManager(repo), nil
}

// openCache opens (and, on first use, schema-initializes) the query
// cache database at <repo>/.beads/turso.db, the path every cache/sync
// command shares.
func openCache() (*db.DB, error) {
	database, err := db.Open(filepath.Join(flagRepo, ".beads", "turso.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := database.InitSchema(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return database, nil
}

// cmdContext returns the background context commands run under.
func cmdContext() context.Context {
	return context.Background()
}

// minJJVersion is the oldest jj release bd's command set (bookmarks,
// op log, workspaces) is known to work against.
const minJJVersion = "v0.20.0"

// checkJJVersion compares repo's reported version against minJJVersion
// and returns an error naming both when repo's is older. Versions that
// don't parse as semver (custom builds, dev snapshots) are let through
// rather than rejected.
func checkJJVersion(repo vcs.VCS) error {
	raw, err := repo.Version()
	if err != nil {
		return fmt.Errorf("get jj version: %w", err)
	}
	v := raw
	if fields := strings.Fields(v); len(fields) > 0 {
		v = fields[len(fields)-1]
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return nil
	}
	if semver.Compare(v, minJJVersion) < 0 {
		return fmt.Errorf("jj %s is older than the minimum supported %s", raw, minJJVersion)
	}
	return nil
}
