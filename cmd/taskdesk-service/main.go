// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// taskdesk-service is the task-assignment HTTP service. It serves the
// registration, login, user, and task endpoints and runs the periodic
// due-date sweep that fails overdue tasks.
//
// The database schema must exist before startup; run taskdesk-migrate
// once against the configured database path.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdesk/taskdesk/lib/clock"
	"github.com/taskdesk/taskdesk/lib/config"
	"github.com/taskdesk/taskdesk/lib/identity"
	"github.com/taskdesk/taskdesk/lib/lifecycle"
	"github.com/taskdesk/taskdesk/lib/service"
	"github.com/taskdesk/taskdesk/lib/sessiontoken"
	"github.com/taskdesk/taskdesk/lib/sqlitepool"
	"github.com/taskdesk/taskdesk/lib/taskstore"
	"github.com/taskdesk/taskdesk/lib/version"
)

func main() {
	configPath := pflag.String("config", "", "path to the YAML config file")
	listenAddress := pflag.String("listen", "", "listen address (overrides config)")
	databasePath := pflag.String("database", "", "SQLite database path (overrides config)")
	stateDir := pflag.String("state-dir", "", "state directory (overrides config)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("taskdesk-service", version.Version)
		return
	}

	if err := run(*configPath, *listenAddress, *databasePath, *stateDir); err != nil {
		fmt.Fprintln(os.Stderr, "taskdesk-service:", err)
		os.Exit(1)
	}
}

func run(configPath, listenAddress, databasePath, stateDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddress != "" {
		cfg.ListenAddress = listenAddress
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
		cfg.DatabasePath = stateDir + "/taskdesk.db"
	}
	if databasePath != "" {
		cfg.DatabasePath = databasePath
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Info("starting taskdesk-service",
		"version", version.Version,
		"listen", cfg.ListenAddress,
		"database", cfg.DatabasePath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.DatabasePath,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := checkSchema(ctx, pool); err != nil {
		return err
	}

	public, private, generated, err := sessiontoken.LoadOrGenerateKeypair(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("loading signing keypair: %w", err)
	}
	if generated {
		logger.Info("generated session signing keypair", "state_dir", cfg.StateDir)
	}

	clk := clock.Real()
	issuer := sessiontoken.NewIssuer(private, clk, cfg.TokenLifetime.Std())
	users := identity.NewStore(pool)
	tasks := taskstore.NewStore(pool)

	sweeper := lifecycle.NewSweeper(lifecycle.SweeperConfig{
		Store:    tasks,
		Interval: cfg.SweepInterval.Std(),
		Clock:    clk,
		Logger:   logger,
	})
	// Catch up on tasks that went overdue while the service was down,
	// then settle into the periodic schedule.
	sweeper.Sweep(ctx)
	go sweeper.Run(ctx)

	handler := &api{
		users:     users,
		tasks:     tasks,
		issuer:    issuer,
		publicKey: public,
		clock:     clk,
		logger:    logger,
	}

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.ListenAddress,
		Handler: handler.routes(),
		Logger:  logger,
	})
	return server.Serve(ctx)
}

// checkSchema verifies the tables exist so a missing migration fails
// fast with a useful message instead of surfacing as query errors.
func checkSchema(ctx context.Context, pool *sqlitepool.Pool) error {
	conn, err := pool.Take(ctx)
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	for _, table := range []string{"users", "tasks"} {
		found := false
		err := sqlitex.Execute(conn,
			`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`,
			&sqlitex.ExecOptions{
				Args: []any{table},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					found = true
					return nil
				},
			})
		if err != nil {
			return fmt.Errorf("checking schema: %w", err)
		}
		if !found {
			return fmt.Errorf("table %q is missing; run taskdesk-migrate first", table)
		}
	}
	return nil
}
