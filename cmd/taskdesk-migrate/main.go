// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// taskdesk-migrate creates or updates the taskdesk database schema.
// Safe to run repeatedly; every statement is IF NOT EXISTS.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdesk/taskdesk/lib/identity"
	"github.com/taskdesk/taskdesk/lib/sqlitepool"
	"github.com/taskdesk/taskdesk/lib/taskstore"
	"github.com/taskdesk/taskdesk/lib/version"
)

func main() {
	databasePath := pflag.String("database", "", "SQLite database path (required)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("taskdesk-migrate", version.Version)
		return
	}

	if *databasePath == "" {
		fmt.Fprintln(os.Stderr, "taskdesk-migrate: --database is required")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := migrate(context.Background(), *databasePath, logger); err != nil {
		fmt.Fprintln(os.Stderr, "taskdesk-migrate:", err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, path string, logger *slog.Logger) error {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: 1,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Take(ctx)
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, identity.Schema+taskstore.Schema, nil); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	logger.Info("schema applied", "database", path)
	return nil
}
