// Package app wires configuration into a running engine.  Both the server
// binary and the CLI serve command build the same App; they differ only in
// how they parse flags and hand over the lifecycle.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/cache"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/exactmatch"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/patternml"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/reasoning"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/rules"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/validator"
	httpserver "github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http"
	"github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/ChemReact-Intelligence/internal/interfaces/http/middleware"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// Version is injected at build time via ldflags.
var Version = "dev"

// App holds the fully wired engine and the resources it owns.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Service *prediction.Service
	Trainer *prediction.Trainer
	Server  *httpserver.Server

	closers []func() error
}

// New builds every component from cfg.  Optional infrastructure (postgres,
// kafka, redis) is wired only when configured; the engine runs fine with
// just the in-process tiers and a file cache.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "chemreact",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("app: metrics collector: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	index := exactmatch.NewIndex(logger)
	classifier := patternml.NewClassifier(logger)
	a.Trainer = prediction.NewTrainer(index, classifier, cfg.Predictor.ArtifactPath, logger)

	var checkers []handlers.HealthChecker

	// Corpus: prefer the database when configured, fall back to the file.
	var repo *postgres.ReactionRepository
	if cfg.Database.Host != "" {
		if err := postgres.Migrate(cfg.Database, logger); err != nil {
			a.close()
			return nil, fmt.Errorf("app: migrate: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("app: postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		checkers = append(checkers, namedChecker{"postgres", pool.HealthCheck})
		repo = postgres.NewReactionRepository(pool, logger)
	}

	if err := a.bootstrapTiers(ctx, index, classifier, repo); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Predictor.WatchArtifact && cfg.Predictor.ArtifactPath != "" {
		watcher, err := patternml.NewArtifactWatcher(cfg.Predictor.ArtifactPath, classifier, logger)
		if err != nil {
			logger.Warn("artifact watcher unavailable", logging.Err(err))
		} else {
			a.closers = append(a.closers, watcher.Close)
		}
	}

	router := prediction.NewRouter(
		prediction.RouterConfig{PatternThreshold: cfg.Predictor.PatternThreshold},
		index, classifier,
		reasoning.NewEngine(cfg.Reasoning, logger),
		rules.NewEngine(),
		logger, nil)

	opts := []prediction.ServiceOption{prediction.WithMetrics(metrics)}

	smart, backend, err := a.buildCache(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if smart != nil {
		opts = append(opts, prediction.WithCache(smart, backend))
	}

	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewPublisher(cfg.Kafka, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("app: kafka: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, prediction.WithPublisher(publisher))
	}

	a.Service = prediction.NewService(router, validator.New(logger), logger, opts...)

	corsCfg := middleware.DefaultCORSConfig()
	routerCfg := httpserver.RouterConfig{
		PredictionHandler: handlers.NewPredictionHandler(a.Service, a.Trainer, logger),
		SystemHandler:     handlers.NewSystemHandler(Version, checkers...),
		CORS:              &corsCfg,
		Logger:            logger,
		MetricsCollector:  collector,
		AppMetrics:        metrics,
	}
	a.Server = httpserver.NewServer(cfg.Server, routerCfg, logger)

	return a, nil
}

// bootstrapTiers seeds the trainable tiers.  A saved artifact wins over
// retraining; otherwise the corpus (repository first, then file) is used.
func (a *App) bootstrapTiers(ctx context.Context, index *exactmatch.Index, classifier *patternml.Classifier, repo *postgres.ReactionRepository) error {
	artifactLoaded := false
	if path := a.Config.Predictor.ArtifactPath; path != "" {
		if _, err := os.Stat(path); err == nil {
			model, err := patternml.LoadArtifact(path)
			if err != nil {
				return fmt.Errorf("app: load artifact: %w", err)
			}
			classifier.SetModel(model)
			artifactLoaded = true
			a.Logger.Info("classifier artifact loaded", logging.String("path", path))
		}
	}

	switch {
	case repo != nil:
		c, err := repo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("app: load corpus from database: %w", err)
		}
		if c.Count > 0 {
			index.Train(c.Reactions)
			if !artifactLoaded {
				a.trainClassifier(classifier, c.Reactions)
			}
			a.Logger.Info("corpus loaded from database", logging.Int("reactions", c.Count))
		}
	case a.Config.Predictor.CorpusPath != "":
		c, err := reaction.LoadCorpus(a.Config.Predictor.CorpusPath)
		if err != nil {
			return fmt.Errorf("app: load corpus file: %w", err)
		}
		index.Train(c.Reactions)
		if !artifactLoaded {
			a.trainClassifier(classifier, c.Reactions)
		}
		a.Logger.Info("corpus loaded from file",
			logging.String("path", a.Config.Predictor.CorpusPath),
			logging.Int("reactions", c.Count))
	default:
		a.Logger.Warn("no corpus configured, level 1 and 2 start cold")
	}

	return nil
}

func (a *App) trainClassifier(classifier *patternml.Classifier, records []rxn.Record) {
	model, err := patternml.Train(records, patternml.DefaultTrainOptions())
	if err != nil {
		a.Logger.Warn("classifier training skipped", logging.Err(err))
		return
	}
	classifier.SetModel(model)
}

func (a *App) buildCache(cfg *config.Config, logger logging.Logger) (*cache.SmartCache, string, error) {
	switch cfg.Cache.Backend {
	case "redis":
		store := cache.NewRedisStore(cfg.Redis, cfg.Cache.TTL, logger)
		a.closers = append(a.closers, store.Close)
		return cache.NewSmartCache(store, cfg.Cache.MaxEntries, logger), "redis", nil
	case "file":
		store, err := cache.NewFileStore(cfg.Cache.Dir, cfg.Cache.TTL, logger)
		if err != nil {
			return nil, "", fmt.Errorf("app: file cache: %w", err)
		}
		return cache.NewSmartCache(store, cfg.Cache.MaxEntries, logger), "file", nil
	default:
		return nil, "", fmt.Errorf("app: unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Start() }()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	stopCtx := context.Background()
	err := a.Server.Stop(stopCtx)
	a.close()
	return err
}

// Close releases every resource the App owns, in reverse wiring order.
func (a *App) Close() error {
	return a.close()
}

func (a *App) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// namedChecker adapts a bare health-check func to the handler interface.
type namedChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (c namedChecker) Name() string                          { return c.name }
func (c namedChecker) HealthCheck(ctx context.Context) error { return c.check(ctx) }
