// Package service runs strategies end to end: cache lookup, evaluation,
// persistence, notification and metrics.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/internal/analysis"
	"github.com/iwvelando/tender-optimizer/internal/cache"
	"github.com/iwvelando/tender-optimizer/internal/events"
	"github.com/iwvelando/tender-optimizer/internal/metrics"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/internal/store"
	"go.uber.org/zap"
)

// Request is one strategy evaluation over a dataset.
type Request struct {
	Shipments []optimizer.Shipment
	Strategy  optimizer.Strategy
}

// Service wires the optimizer to its supporting infrastructure. Every
// dependency except the optimizer is optional.
type Service struct {
	optimizer *optimizer.Optimizer
	cache     cache.Cache
	store     store.Store
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithCache(c cache.Cache) Option { return func(s *Service) { s.cache = c } }

func WithStore(st store.Store) Option { return func(s *Service) { s.store = st } }

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// New constructs a Service around opt.
func New(opt *optimizer.Optimizer, opts ...Option) *Service {
	s := &Service{
		optimizer: opt,
		cache:     cache.Nop{},
		store:     store.NewMemory(),
		publisher: events.Nop{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	metrics.Register()
	return s
}

// Backend names the solver used for the optimized strategy.
func (s *Service) Backend() string {
	return s.optimizer.Backend()
}

// Run evaluates the request and records it. Cache and publish failures are
// logged and do not fail the run; a failure to persist does.
func (s *Service) Run(ctx context.Context, req Request) (*store.Run, error) {
	if req.Strategy.Kind == "" {
		req.Strategy.Kind = optimizer.StrategyOptimized
	}
	kind := string(req.Strategy.Kind)
	backend := s.optimizer.Backend()
	start := s.now()

	// The cache key normalizes weights, so invalid pairs must fail first.
	if req.Strategy.Kind == optimizer.StrategyOptimized {
		if err := req.Strategy.Weights.Validate(); err != nil {
			metrics.ObserveRun(kind, backend, outcome(err), 0, 0)
			return nil, err
		}
	}

	key := cache.Key(req.Shipments, req.Strategy, backend)
	sol, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("solution cache lookup failed",
			zap.String("op", "service.Run"),
			zap.String("key", key),
			zap.Error(err),
		)
		hit = false
	}
	metrics.ObserveCache(hit)

	if !hit {
		sol, err = s.optimizer.Evaluate(req.Shipments, req.Strategy)
		if err != nil {
			metrics.ObserveRun(kind, backend, outcome(err), 0, 0)
			return nil, err
		}
		if err := s.cache.Set(ctx, key, sol); err != nil {
			s.logger.Warn("failed to cache solution",
				zap.String("op", "service.Run"),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	// Cached solutions may have been produced by a proportional weight pair.
	if req.Strategy.Kind == optimizer.StrategyOptimized {
		sol = sol.Clone()
		sol.Weights = req.Strategy.Weights
	}

	elapsed := s.now().Sub(start)
	run := &store.Run{
		ID:        uuid.New(),
		CreatedAt: start.UTC(),
		Strategy:  req.Strategy.Kind,
		Weights:   sol.Weights,
		Backend:   backend,
		CacheHit:  hit,
		Duration:  elapsed,
		Solution:  sol,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		metrics.ObserveRun(kind, backend, "store_error", sol.Offers, elapsed)
		s.logger.Error("failed to save run",
			zap.String("op", "service.Run"),
			zap.String("runID", run.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.ObserveRun(kind, backend, "ok", sol.Offers, elapsed)

	if err := s.publisher.PublishRunCompleted(ctx, completedEvent(run)); err != nil {
		s.logger.Warn("failed to publish run event",
			zap.String("op", "service.Run"),
			zap.String("runID", run.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("run completed",
		zap.String("op", "service.Run"),
		zap.String("runID", run.ID.String()),
		zap.String("strategy", kind),
		zap.Bool("cacheHit", hit),
		zap.Int("assignments", len(sol.Assignments)),
		zap.Float64("totalCost", sol.TotalCost),
		zap.Duration("duration", elapsed),
	)
	return run, nil
}

// Compare evaluates every strategy over shipments without recording a run.
func (s *Service) Compare(_ context.Context, shipments []optimizer.Shipment, w optimizer.Weights) (*analysis.Comparison, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return analysis.Compare(s.optimizer, shipments, w)
}

// GetRun returns a recorded run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*store.Run, error) {
	return s.store.GetRun(ctx, id)
}

// ListRuns returns recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]*store.Run, error) {
	return s.store.ListRuns(ctx, limit)
}

func completedEvent(run *store.Run) events.RunCompleted {
	return events.RunCompleted{
		RunID:       run.ID,
		CreatedAt:   run.CreatedAt,
		Strategy:    run.Strategy,
		Backend:     run.Backend,
		TotalCost:   run.Solution.TotalCost,
		Groups:      run.Solution.Groups,
		Assignments: len(run.Solution.Assignments),
		NoChoice:    run.Solution.NoChoice,
		CacheHit:    run.CacheHit,
		DurationMs:  run.Duration.Milliseconds(),
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, optimizer.ErrDataIncomplete):
		return "data_incomplete"
	case errors.Is(err, optimizer.ErrInvalidShipment), errors.Is(err, optimizer.ErrInvalidWeights):
		return "invalid_input"
	case errors.Is(err, optimizer.ErrOptimizationInfeasible):
		return "infeasible"
	default:
		return "error"
	}
}
