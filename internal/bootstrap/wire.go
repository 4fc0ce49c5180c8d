package bootstrap

import (
	"context"
	"fmt"

	"github.com/iwvelando/tender-optimizer/internal/cache"
	"github.com/iwvelando/tender-optimizer/internal/config"
	"github.com/iwvelando/tender-optimizer/internal/events"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/internal/service"
	"github.com/iwvelando/tender-optimizer/internal/store"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"go.uber.org/zap"
)

// Services is a wired service together with the connections it holds.
type Services struct {
	Service *service.Service
	closers []func()
}

// Close releases every connection opened by NewServices, last opened first.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewServices builds the optimizer, cache, run store and event publisher
// described by conf. Remote backends are contacted before returning.
func NewServices(ctx context.Context, conf *config.Configuration, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	solver, err := optimizer.NewSolver(conf.Optimizer.Backend)
	if err != nil {
		return nil, err
	}

	s := &Services{}
	opts := []service.Option{service.WithLogger(logger)}

	if conf.Cache.Enabled {
		c, err := s.cache(ctx, conf.Cache)
		if err != nil {
			s.Close()
			return nil, err
		}
		opts = append(opts, service.WithCache(c))
	}

	if conf.Store.Backend == constants.StoreBackendPostgres {
		pg, err := store.NewPostgres(ctx, conf.Store.DSN, conf.Store.Table)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate run store: %w", err)
		}
		opts = append(opts, service.WithStore(pg))
	}

	if conf.Events.Enabled {
		pub, err := events.NewAMQP(events.AMQPConfig{
			URL:            conf.Events.URL,
			Exchange:       conf.Events.Exchange,
			RoutingKey:     conf.Events.RoutingKey,
			PublishTimeout: conf.Events.PublishTimeout,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("failed to close event publisher",
					zap.String("op", "bootstrap.Close"),
					zap.Error(err),
				)
			}
		})
		opts = append(opts, service.WithPublisher(pub))
	}

	s.Service = service.New(optimizer.New(logger, solver), opts...)
	logger.Debug("service wired",
		zap.String("op", "bootstrap.NewServices"),
		zap.String("backend", solver.Name()),
		zap.Bool("cache", conf.Cache.Enabled),
		zap.String("cacheBackend", conf.Cache.Backend),
		zap.String("store", conf.Store.Backend),
		zap.Bool("events", conf.Events.Enabled),
	)
	return s, nil
}

func (s *Services) cache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend != constants.CacheBackendRedis {
		return cache.NewMemory(cfg.MaxEntries), nil
	}

	rc, err := cache.NewRedis(cfg.RedisURL, cfg.TTL)
	if err != nil {
		return nil, err
	}
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	s.closers = append(s.closers, func() { _ = rc.Close() })
	return rc, nil
}
