// Package main is the entry point for the FX rate resolution service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fxresolver/internal/advisory"
	"fxresolver/internal/config"
	"fxresolver/internal/currency"
	"fxresolver/internal/metrics"
	"fxresolver/internal/provider"
	"fxresolver/internal/reference"
	"fxresolver/internal/repository"
	"fxresolver/internal/resolver"
	"fxresolver/internal/service"
	"fxresolver/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg            *config.Config
	logger         *zap.SugaredLogger
	metrics        *metrics.ResolverMetrics
	db             *sql.DB
	rdbCache       *redis.Client
	rdbAsynq       *redis.Client
	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler
	monitor        *asynqmon.HTTPHandler
	httpServer     *http.Server
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewResolverMetrics(nil),
	}

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database and Redis connections
func (app *App) close() error {
	var errs []error
	if app.monitor != nil {
		if err := app.monitor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynqmon close: %w", err))
		}
	}
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	if app.cfg.Database.Enabled {
		db, err := repository.NewPostgresDB(&app.cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to Postgres: %w", err)
		}
		app.db = db

		if err := repository.RunMigrations(app.db, app.logger); err != nil {
			return fmt.Errorf("run DB migrations: %w", err)
		}
	} else {
		app.logger.Infow("Database disabled: refresh tracking and snapshots are off")
	}

	if app.cfg.Cache.Backend == config.CacheBackendRedis {
		app.rdbCache = redis.NewClient(&redis.Options{
			Addr: app.cfg.Redis.CacheAddr,
		})
		if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
		}
		app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)
	}

	return nil
}

func (app *App) initServices() error {
	adapters := newAdapters(app.cfg, app.rateStore(), app.metrics, app.logger)

	rateService := resolver.NewService(adapters, reference.Default(), app.logger,
		resolver.WithPivot(currency.Code(app.cfg.Resolver.PivotCurrency)),
		resolver.WithRequestTimeout(app.cfg.Resolver.RequestTimeout()),
		resolver.WithMetrics(app.metrics),
	)

	var (
		refreshRepo repository.RefreshRepository
		snapshots   repository.SnapshotRepository
	)
	if app.db != nil {
		refreshRepo = repository.NewPostgresRefreshRepository(app.db)
		snapshots = repository.NewPostgresSnapshotRepository(app.db)
	}

	engine := advisory.NewEngine(rateService, app.logger,
		advisory.WithHistory(historyProviders(app.cfg, snapshots)...))

	var enqueuer service.TaskEnqueuer
	if app.cfg.Redis.AsynqAddr != "" {
		redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}

		app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
		app.asynqClient = asynq.NewClient(redisOpt)
		app.asynqServer = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: app.cfg.Worker.Concurrency,
			Logger:      app.logger,
		})
		app.asynqScheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   app.logger,
		})
		enqueuer = worker.NewAsynqEnqueuer(app.asynqClient, app.cfg.Worker.MaxRetry, app.taskTimeout())
		app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)
	} else {
		app.logger.Infow("Asynq disabled: background refresh is off")
	}

	refreshService := service.NewRefreshService(refreshRepo, snapshots, rateService, enqueuer, app.metrics, app.logger)

	if app.asynqServer != nil {
		app.asynqMux = worker.NewServeMux(refreshService, app.logger)
		if err := worker.RegisterRefreshes(app.asynqScheduler, app.cfg.Worker.WatchPairs,
			app.cfg.Worker.RefreshInterval(), app.cfg.Worker.MaxRetry, app.taskTimeout(), app.logger); err != nil {
			return err
		}
	}

	app.initHTTP(rateService, engine, refreshService)
	return nil
}

func (app *App) taskTimeout() time.Duration {
	return time.Duration(app.cfg.Worker.TimeoutSec) * time.Second
}

// rateStore returns the live-rate cache selected by cache.backend, or nil.
func (app *App) rateStore() provider.Store {
	switch app.cfg.Cache.Backend {
	case config.CacheBackendRedis:
		return provider.NewRedisStore(app.rdbCache)
	case config.CacheBackendMemory:
		return provider.NewMemoryStore()
	default:
		return nil
	}
}

// newAdapters builds the configured live providers in priority order, each
// behind the shared cache.
func newAdapters(cfg *config.Config, store provider.Store, m *metrics.ResolverMetrics, logger *zap.SugaredLogger) []provider.Adapter {
	var adapters []provider.Adapter
	wrap := func(a provider.Adapter) provider.Adapter {
		if store == nil {
			return a
		}
		return provider.NewCachedAdapter(a, store, cfg.Cache.LiveTTL()).
			OnStoreError(func(key provider.CacheKey, err error) {
				m.RecordCacheWriteError()
				logger.Warnw("Cache write failed", "key", key.String(), "error", err)
			})
	}

	if cfg.Frankfurter.Enabled {
		adapters = append(adapters, wrap(provider.NewFrankfurterAdapter(cfg.Frankfurter.BaseURL, seconds(cfg.Frankfurter.Timeout))))
	}
	if cfg.ExchangeRateHost.Enabled {
		adapters = append(adapters, wrap(provider.NewExchangeRateHostAdapter(cfg.ExchangeRateHost.BaseURL, cfg.ExchangeRateHost.APIKey, seconds(cfg.ExchangeRateHost.Timeout))))
	}
	if cfg.ExchangeRateAPI.Enabled {
		adapters = append(adapters, wrap(provider.NewExchangeRateAPIAdapter(cfg.ExchangeRateAPI.BaseURL, seconds(cfg.ExchangeRateAPI.Timeout))))
	}

	if len(adapters) == 0 {
		logger.Warnw("No live providers enabled: every rate will come from the reference table or mock tier")
	}
	return adapters
}

// historyProviders collects the enabled sources of observed history, most
// complete first.
func historyProviders(cfg *config.Config, snapshots repository.SnapshotRepository) []provider.HistoryProvider {
	var out []provider.HistoryProvider
	if cfg.History.UseFrankfurter && cfg.Frankfurter.Enabled {
		out = append(out, provider.NewFrankfurterAdapter(cfg.Frankfurter.BaseURL, seconds(cfg.Frankfurter.Timeout)))
	}
	if cfg.History.UseSnapshots && snapshots != nil {
		out = append(out, snapshots)
	}
	return out
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Run starts the HTTP server, Asynq worker and scheduler, blocking until
// the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if app.asynqServer != nil {
		g.Go(func() error {
			app.logger.Infow("Starting Asynq worker server")
			if err := app.asynqServer.Start(app.asynqMux); err != nil {
				return fmt.Errorf("asynq worker failed to start: %w", err)
			}
			if err := app.asynqScheduler.Start(); err != nil {
				return fmt.Errorf("asynq scheduler failed to start: %w", err)
			}

			<-ctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> scheduler -> Asynq
// worker -> connections, so in-flight refreshes finish before the DB and
// Redis connections close.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if app.asynqScheduler != nil {
		app.asynqScheduler.Shutdown()
	}
	if app.asynqServer != nil {
		app.asynqServer.Shutdown()
	}

	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
