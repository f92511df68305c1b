// Package warmer periodically fits fatigue models into the model cache so
// interactive snapshots hit a warm cache.
package warmer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/multierr"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/telemetry/metrics"
)

// Service warms one user's model. *analytics.Service implements it.
type Service interface {
	Warm(ctx context.Context, userID string) error
}

var _ Service = (*analytics.Service)(nil)

// Warmer runs Service.Warm for a fixed set of users on a cron schedule.
type Warmer struct {
	svc     Service
	users   []string
	log     *slog.Logger
	metrics *metrics.Manager
	timeout time.Duration

	cron *cron.Cron
}

// New creates a Warmer. m may be nil.
func New(svc Service, users []string, log *slog.Logger, m *metrics.Manager) *Warmer {
	return &Warmer{
		svc:     svc,
		users:   users,
		log:     log,
		metrics: m,
		timeout: 2 * time.Minute,
	}
}

// RunOnce warms every user in turn. A failing user never stops the others;
// all failures are returned combined.
func (w *Warmer) RunOnce(ctx context.Context) error {
	var errs error
	for _, uid := range w.users {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		uctx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.svc.Warm(uctx, uid)
		cancel()

		status := "success"
		if err != nil {
			status = "error"
			errs = multierr.Append(errs, fmt.Errorf("warming %s: %w", uid, err))
		}
		if w.metrics != nil {
			w.metrics.CounterWarmerRuns.WithLabelValues(status).Inc()
		}
	}
	return errs
}

// Start schedules RunOnce. Runs stop when ctx is cancelled or Stop is called.
func (w *Warmer) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	err := c.AddFunc(schedule, func() {
		start := time.Now()
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("model warm-up failed", "error", err)
			return
		}
		w.log.Info("model warm-up done", "users", len(w.users), "duration", time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("invalid warmer schedule %q: %w", schedule, err)
	}
	c.Start()
	w.cron = c
	w.log.Info("model warmer scheduled", "schedule", schedule, "users", len(w.users))
	return nil
}

// Stop halts the schedule. A run in progress finishes on its own.
func (w *Warmer) Stop() {
	if w.cron != nil {
		w.cron.Stop()
		w.cron = nil
	}
}
