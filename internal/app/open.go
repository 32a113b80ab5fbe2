package app

import (
	"context"
	"fmt"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/ghost"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/reference"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/weather"
)

// Open builds the full application from configuration: logger, provider
// stack, database, stores and the optional Ghost publisher. The caller
// must Close the returned App.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	return open(ctx, cfg, true)
}

// OpenOffline builds the application without a text generator, for
// commands that only read or re-score stored runs. PlanTrip fails on it.
func OpenOffline(cfg *config.Config) (*App, error) {
	return open(context.Background(), cfg, false)
}

func open(ctx context.Context, cfg *config.Config, withGenerator bool) (*App, error) {
	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	closers := []func() error{logger.Close}

	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	var textGen llm.TextGenerator
	if withGenerator {
		svc, err := llm.NewService(ctx, cfg, logger)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize text generator: %w", err))
		}
		closers = append(closers, svc.Close)
		textGen = svc
	}

	db, err := database.NewDB(cfg.Storage.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize database: %w", err))
	}
	closers = append(closers, db.Close)

	sessions, err := storage.NewSessionStore(cfg.Storage.SessionDir)
	if err != nil {
		return fail(err)
	}

	var publisher ghost.Client
	if cfg.GhostEnabled() {
		publisher = ghost.NewClient(cfg.Ghost)
	}

	a := New(Deps{
		Config:           cfg,
		Logger:           logger,
		TextGen:          textGen,
		Sessions:         sessions,
		History:          history.NewRepository(db.SQL),
		Metrics:          metrics.NewStore(db.SQL),
		Publisher:        publisher,
		References:       reference.NewLoader(logger),
		PublicReferences: reference.NewPublicLoader(logger),
		Weather:          weather.NewService(cfg.Weather.OpenWeatherAPIKey, logger),
	})
	a.closers = closers
	return a, nil
}
