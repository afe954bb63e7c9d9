package cmd

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/runeberg/flare/internal/config"
	"github.com/runeberg/flare/internal/engine"
	"github.com/runeberg/flare/internal/logging"
	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/quicklink"
	"github.com/runeberg/flare/internal/rank"
	"github.com/runeberg/flare/internal/stats"
	"github.com/runeberg/flare/internal/storage"
	"github.com/runeberg/flare/internal/weights"
)

// app bundles the wired engine and its collaborators for one command
// invocation. Close releases the worker pool and the database.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *storage.Store
	engine  *engine.Engine
	weights *weights.SQLiteStore
	links   *quicklink.Store
	tracker *stats.Tracker
}

func (a *app) Close() {
	if a.engine != nil {
		_ = a.engine.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// openApp loads config, opens the database, and wires the engine with
// the quicklink provider, persisted weights, and usage stats. quiet
// drops log output entirely (the TUI owns the terminal).
func openApp(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	var logger *slog.Logger
	if quiet {
		logger = logging.Discard()
	} else {
		logger = logging.New(&logging.Config{
			Level:  logging.ParseLevel(cfg.Log.Level),
			Format: logging.ParseFormat(cfg.Log.Format),
		})
	}

	store, err := storage.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	weightsStore := weights.NewSQLiteStore(store.DB())
	w := weights.LoadOrDefaults(ctx, weightsStore, logger)

	tracker, err := stats.NewTracker(store.DB(), stats.DefaultOptions(), logger)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "open usage stats")
	}

	linkStore := quicklink.NewStore(store.DB())

	registry := provider.NewRegistry()
	registry.Register(quicklink.NewProvider(linkStore, logger), provider.Fast)

	eng, err := engine.New(engine.Options{
		Config:   cfg,
		Registry: registry,
		Ranker:   rank.New(weights.NewHolder(w), tracker),
		Recorder: tracker,
		Logger:   logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "build engine")
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		engine:  eng,
		weights: weightsStore,
		links:   linkStore,
		tracker: tracker,
	}, nil
}
