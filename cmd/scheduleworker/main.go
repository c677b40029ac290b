// Command scheduleworker runs the schedule ingest worker: it claims idle
// capture sessions, recognizes their screenshots, and maintains each
// user-day's versioned canonical schedule and notification queue
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"swearjar/internal/modkit"
	"swearjar/internal/platform/config"
	"swearjar/internal/platform/logger"
	"swearjar/internal/platform/store"
	swmod "swearjar/internal/services/scheduleworker/module"
)

// version is stamped at build time via -ldflags, left as "dev" otherwise
var version = "dev"

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "scheduleworker",
		Short: "Schedule ingest worker: screenshots in, versioned schedules and notifications out",
	}
	root.AddCommand(runCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the worker loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	logger.Init(logger.FromEnv())
	l := logger.Get()

	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL_SCHEDULEWORKER"),
			Schema:      dbCfg.MayString("SCHEMA", ""),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}
	mod := swmod.New(deps)
	ports := mod.Ports().(swmod.Ports)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info().Str("version", version).Msg("scheduleworker: starting")
	if err := ports.Runner.Run(runCtx); err != nil && runCtx.Err() == nil {
		l.Error().Err(err).Msg("scheduleworker: run loop exited with error")
		return err
	}
	l.Info().Msg("scheduleworker: stopped")
	return nil
}
