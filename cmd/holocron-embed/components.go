package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/config"
	"github.com/holocron/embedder/internal/embedding"
	"github.com/holocron/embedder/internal/lazymodel"
	"github.com/holocron/embedder/internal/metrics"
	"github.com/holocron/embedder/internal/modelstore"
	"github.com/holocron/embedder/internal/search"
	"github.com/holocron/embedder/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder *lazymodel.Service
	Engine   *search.Engine
	Metrics  *metrics.Metrics
}

// Close releases the model, waiting for in-flight embeddings, then the database.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Embedder != nil {
		if err := c.Embedder.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close embedding model: %w", err))
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newEmbeddingService wires the model slot. Nothing is downloaded or loaded
// until the first GetEmbedding call.
func newEmbeddingService(cfg *config.Config, logger *zap.Logger, recorder lazymodel.Recorder) (*lazymodel.Service, error) {
	store, err := modelstore.NewFromConfig(cfg.ModelStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model store: %w", err)
	}
	cache, err := embedding.NewEmbeddingCache(cfg.Embedding.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}
	construct := func(ctx context.Context) (embedding.Model, error) {
		return embedding.Load(ctx, cfg.Embedding, store, logger)
	}
	opts := []lazymodel.Option{lazymodel.WithLogger(logger), lazymodel.WithCache(cache)}
	if recorder != nil {
		opts = append(opts, lazymodel.WithRecorder(recorder))
	}
	return lazymodel.NewService(lazymodel.NewSlot(cfg.Embedding.MaxConcurrentInference), construct, opts...), nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var m *metrics.Metrics
	var recorder lazymodel.Recorder
	if cfg.Metrics.EnabledOrDefault() {
		m = metrics.New(true)
		recorder = m
	}

	svc, err := newEmbeddingService(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Index.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engineOpts := []search.Option{search.WithLogger(logger)}
	if m != nil {
		engineOpts = append(engineOpts, search.WithPageGauge(m))
	}
	engine := search.NewEngine(store, svc, engineOpts...)
	if err := engine.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Components{
		Storage:  store,
		Embedder: svc,
		Engine:   engine,
		Metrics:  m,
	}, nil
}
