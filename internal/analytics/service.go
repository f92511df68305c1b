package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/claude/trainload/internal/models"
	"github.com/claude/trainload/internal/telemetry/metrics"
	"github.com/claude/trainload/internal/telemetry/tracing"
)

// Source names reported in snapshots and metrics.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Service assembles analytics snapshots from a local and a remote session
// source, memoizing the hierarchical model fit in a ModelCache.
type Service struct {
	local    SessionSource
	remote   SessionSource
	cache    ModelCache
	taxonomy *Taxonomy
	params   Params
	log      *slog.Logger
	metrics  *metrics.Manager
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time used as the readout instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithParams(p Params) Option {
	return func(s *Service) { s.params = p }
}

func WithTaxonomy(t *Taxonomy) Option {
	return func(s *Service) { s.taxonomy = t }
}

// NewService creates a Service. Either source and the cache may be nil.
func NewService(local, remote SessionSource, cache ModelCache, opts ...Option) *Service {
	s := &Service{
		local:    local,
		remote:   remote,
		cache:    cache,
		taxonomy: DefaultTaxonomy(),
		params:   DefaultParams(),
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params returns the engine tunables in effect.
func (s *Service) Params() Params {
	return s.params
}

type fetched struct {
	sessions   []models.WorkoutSession
	sources    []models.SourceStatus
	configured int
	failed     int
	err        error
}

func (f fetched) allFailed() bool {
	return f.configured > 0 && f.failed == f.configured
}

// fetch reads both sources concurrently and reconciles them. A failing
// source contributes no sessions.
func (s *Service) fetch(ctx context.Context, userID string) (f fetched) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.fetch")
	defer func() { tracing.EndSpanWithErrCheck(span, f.err) }()

	type slot struct {
		name     string
		src      SessionSource
		sessions []models.WorkoutSession
		err      error
	}
	slots := []*slot{
		{name: SourceLocal, src: s.local},
		{name: SourceRemote, src: s.remote},
	}

	var g errgroup.Group
	for _, sl := range slots {
		if sl.src == nil {
			continue
		}
		g.Go(func() error {
			sl.sessions, sl.err = sl.src.Sessions(ctx, userID)
			return nil
		})
	}
	_ = g.Wait()

	for _, sl := range slots {
		if sl.src == nil {
			continue
		}
		f.configured++
		status := models.SourceStatus{Name: sl.name, Sessions: len(sl.sessions)}
		if sl.err != nil {
			f.failed++
			status.Sessions = 0
			status.Error = sl.err.Error()
			f.err = multierr.Append(f.err, fmt.Errorf("%s source: %w", sl.name, sl.err))
			if s.metrics != nil {
				s.metrics.CounterSourceErrors.WithLabelValues(sl.name).Inc()
			}
			sl.sessions = nil
		}
		f.sources = append(f.sources, status)
	}
	if f.err != nil {
		s.log.Warn("session sources failed", "user_id", userID, "failed", f.failed, "error", f.err)
	}

	f.sessions = Reconcile(slots[0].sessions, slots[1].sessions)
	return f
}

// Snapshot computes the selected views for a user. Views without enough
// data are left nil and named in Insufficient. Source failures are reported
// in Sources and never fail the snapshot.
func (s *Service) Snapshot(ctx context.Context, userID string, include Include) (snap *models.AnalyticsSnapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.snapshot")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	start := time.Now()
	defer func() {
		if s.metrics == nil {
			return
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.CounterSnapshots.WithLabelValues(status).Inc()
		s.metrics.HistSnapshotDuration.Observe(time.Since(start).Seconds())
	}()

	if include == 0 {
		include = IncludeAll
	}

	f := s.fetch(ctx, userID)
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	sessions := f.sessions
	snap = &models.AnalyticsSnapshot{
		UserID:       userID,
		GeneratedAt:  now,
		SessionCount: len(sessions),
		Fingerprint:  Fingerprint(sessions),
		Sources:      f.sources,
	}
	insufficient := func(name string) {
		snap.Insufficient = append(snap.Insufficient, name)
	}

	if include.Has(IncludeACWR) {
		_, sp := tracing.GlobalTracer.Start(ctx, "analytics.acwr")
		if len(sessions) >= s.params.MinSessions {
			if summary, ok := Aggregate(LoadSamples(sessions)); ok {
				snap.ACWR = &summary
			}
		}
		if snap.ACWR == nil {
			insufficient("acwr")
		}
		sp.End()
	}

	if include.Has(IncludeFitnessFatigue) {
		_, sp := tracing.GlobalTracer.Start(ctx, "analytics.fitness_fatigue")
		snap.FitnessFatigue = SimulateFitnessFatigue(sessions, s.params.Fitness, now)
		if snap.FitnessFatigue == nil {
			insufficient("fitness_fatigue")
		}
		sp.End()
	}

	if include.Has(IncludePersonalStats) {
		if len(sessions) > 0 {
			snap.PersonalStats = PersonalStatistics(sessions, now)
		} else {
			insufficient("personal_stats")
		}
	}

	if !include.Has(IncludeHierarchical | IncludeExerciseRates | IncludeRecovery | IncludeSFR) {
		return snap, nil
	}

	days := History(sessions)
	modelKey := ModelKey(snap.Fingerprint, s.params.Hierarchical)
	var model *models.HierarchicalFatigueModel
	if include.Has(IncludeHierarchical | IncludeExerciseRates) {
		model = s.fitModel(ctx, userID, modelKey, days)
		if include.Has(IncludeHierarchical) {
			if model != nil {
				snap.HierarchicalModel = model
			} else {
				insufficient("hierarchical")
			}
		}
		if include.Has(IncludeExerciseRates) {
			if model != nil {
				snap.ExerciseRates = ExerciseRates(model, exerciseNames(days))
			}
			if len(snap.ExerciseRates) == 0 {
				insufficient("exercise_rates")
			}
		}
	} else {
		model = s.cachedModel(ctx, userID, modelKey)
	}

	if include.Has(IncludeRecovery) {
		_, sp := tracing.GlobalTracer.Start(ctx, "analytics.recovery")
		if len(days) > 0 {
			snap.RecoveryProfiles = EstimateRecovery(days, model, s.taxonomy, now)
		} else {
			insufficient("recovery")
		}
		sp.End()
	}

	if include.Has(IncludeSFR) {
		_, sp := tracing.GlobalTracer.Start(ctx, "analytics.sfr")
		snap.SFRInsights = RankEfficiency(days, model, s.params.SFR)
		if len(snap.SFRInsights) == 0 {
			insufficient("sfr")
		}
		sp.End()
	}

	return snap, nil
}

// cachedModel returns a cached model for the key, or nil. Cache
// errors count as misses.
func (s *Service) cachedModel(ctx context.Context, userID, key string) *models.HierarchicalFatigueModel {
	if s.cache == nil || key == "" {
		return nil
	}
	model, ok, err := s.cache.Get(ctx, userID, key)
	switch {
	case err != nil:
		s.log.Warn("model cache get failed", "user_id", userID, "error", err)
		s.countCache("error")
		return nil
	case !ok || model == nil:
		s.countCache("miss")
		return nil
	}
	s.countCache("hit")
	return model
}

// fitModel returns the cached model or fits and stores a new one.
func (s *Service) fitModel(ctx context.Context, userID, key string, days []TrainingDay) *models.HierarchicalFatigueModel {
	if model := s.cachedModel(ctx, userID, key); model != nil {
		return model
	}

	_, span := tracing.GlobalTracer.Start(ctx, "analytics.fit_hierarchical")
	start := time.Now()
	model := FitHierarchical(days, s.params.Hierarchical)
	if s.metrics != nil {
		s.metrics.HistModelFitDuration.Observe(time.Since(start).Seconds())
	}
	span.End()

	if model == nil || s.cache == nil {
		return model
	}
	err := s.cache.Put(ctx, userID, key, model)
	switch {
	case errors.Is(err, ErrCacheEntryTooLarge):
		s.log.Debug("model not cached", "user_id", userID, "exercises", len(model.ExerciseSpecificFactors), "error", err)
		s.countCache("skip")
	case err != nil:
		s.log.Warn("model cache put failed", "user_id", userID, "error", err)
		s.countCache("error")
	}
	return model
}

func (s *Service) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CounterModelCache.WithLabelValues(result).Inc()
	}
}

// Sessions returns the reconciled history. It fails only when every
// configured source failed.
func (s *Service) Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	f := s.fetch(ctx, userID)
	if f.allFailed() {
		return nil, fmt.Errorf("fetching sessions for %s: %w", userID, f.err)
	}
	return f.sessions, nil
}

// LoadSeries returns one load sample per reconciled session.
func (s *Service) LoadSeries(ctx context.Context, userID string) ([]models.TrainingLoadSample, error) {
	sessions, err := s.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return LoadSamples(sessions), nil
}

// Warm fits the user's model into the cache if it is not already there.
func (s *Service) Warm(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.warm")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	f := s.fetch(ctx, userID)
	if f.allFailed() {
		return fmt.Errorf("fetching sessions for %s: %w", userID, f.err)
	}
	key := ModelKey(Fingerprint(f.sessions), s.params.Hierarchical)
	if s.fitModel(ctx, userID, key, History(f.sessions)) == nil {
		s.log.Debug("not enough history to fit model", "user_id", userID, "sessions", len(f.sessions))
	}
	return nil
}
