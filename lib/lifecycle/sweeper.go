// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskdesk/taskdesk/lib/clock"
	"github.com/taskdesk/taskdesk/lib/schema"
)

// OverdueFailer marks every non-completed task whose due date falls
// strictly before the given date as failed, returning how many rows
// changed. The task store implements this.
type OverdueFailer interface {
	FailOverdue(ctx context.Context, today schema.Date) (int, error)
}

// Sweeper periodically fails overdue tasks.
type Sweeper struct {
	store    OverdueFailer
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
}

// SweeperConfig carries the dependencies of a Sweeper. Clock and
// Logger may be nil, in which case the real clock and a discarding
// logger are used.
type SweeperConfig struct {
	Store    OverdueFailer
	Interval time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// NewSweeper builds a Sweeper. The interval must be positive.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	if cfg.Store == nil {
		panic("lifecycle: SweeperConfig.Store is required")
	}
	if cfg.Interval <= 0 {
		panic("lifecycle: SweeperConfig.Interval must be positive")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{
		store:    cfg.Store,
		clock:    clk,
		interval: cfg.Interval,
		logger:   logger,
	}
}

// Run sweeps once per interval until the context is cancelled. Store
// errors are logged and the sweep retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs a single pass immediately. Run calls this on every tick;
// the service also calls it once at startup so a long interval does
// not delay the first pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.sweep(ctx)
}

func (s *Sweeper) sweep(ctx context.Context) {
	today := schema.DateOf(s.clock.Now())
	failed, err := s.store.FailOverdue(ctx, today)
	if err != nil {
		s.logger.Error("due-date sweep failed", "error", err)
		return
	}
	if failed > 0 {
		s.logger.Info("due-date sweep marked overdue tasks failed",
			"count", failed, "today", today.String())
	}
}
