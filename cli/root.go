// Package cli wires configuration, storage and the HTTP layer into the
// content-builder command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stevemurr/content-builder/config"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/store"
)

// app carries the state every subcommand shares. It is filled by the root
// command's PersistentPreRunE.
type app struct {
	v          *viper.Viper
	configFile string

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd builds the full command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "content-builder",
		Short: "Creator, content set and card store with HTTP API and data tooling",
		Long: `content-builder manages creators, their content sets and the cards inside
them. The same data can live in JSON files, SQLite or PostgreSQL; the serve
command exposes it over HTTP and the other commands move it between
backends and formats.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.sync() },
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./content-builder.{yaml,toml,json})")
	pf.String("backend", "", "store backend: json, sqlite, postgres or memory (env STORE_BACKEND)")
	pf.String("data-dir", "", "data directory for the json and sqlite backends (env DATA_DIR)")
	pf.String("dsn", "", "database connection string (env DATABASE_URL)")
	pf.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.String("log-mode", "", "log mode: dev or prod (env LOG_MODE)")
	for flag, key := range map[string]string{
		"backend":   "store.backend",
		"data-dir":  "store.data_dir",
		"dsn":       "store.dsn",
		"log-level": "log.level",
		"log-mode":  "log.mode",
	} {
		mustBind(a.v.BindPFlag(key, pf.Lookup(flag)))
	}

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.convertCmd(),
		a.schemaCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Setup(a.v, a.configFile); err != nil {
		return err
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.log = log.With("command", cmd.Name())
	if cfg.ConfigFile != "" {
		a.log.Debug("config file loaded", "path", cfg.ConfigFile)
	}
	return nil
}

func (a *app) sync() {
	if a.log != nil {
		a.log.Sync()
	}
}

// mustBind panics on a flag binding error, which only a missing flag causes.
func mustBind(err error) {
	if err != nil {
		panic(fmt.Sprintf("bind flag: %v", err))
	}
}

// openData opens the configured backend.
func (a *app) openData() (*store.DataManager, error) {
	b, err := store.New(a.cfg.Store, a.log)
	if err != nil {
		return nil, err
	}
	a.log.Info("store opened", "backend", b.Name())
	return store.NewDataManager(b, a.log), nil
}
