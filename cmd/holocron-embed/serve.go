package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/lazymodel"
	"github.com/holocron/embedder/internal/pagesync"
	"github.com/holocron/embedder/internal/server"
	"github.com/holocron/embedder/internal/tracing"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, configPath, logger, err := opts.load(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", configPath),
		zap.Bool("debug", cfg.Debug),
		zap.String("model", cfg.Embedding.Model),
		zap.String("backend", cfg.Embedding.Backend),
		zap.Int("max_concurrent_inference", cfg.Embedding.MaxConcurrentInference),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var metricsHandler http.Handler
	if components.Metrics != nil {
		metricsHandler = components.Metrics.Handler()
	}
	srv := server.NewServer(components.Embedder, components.Engine, cfg, metricsHandler, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if cfg.Embedding.WarmUp {
		go warmUp(ctx, components.Embedder, logger)
	}

	syncDone := make(chan struct{})
	if len(cfg.Index.WatchDirs) > 0 {
		syncer := pagesync.New(components.Engine, cfg.Index.WatchDirs, cfg.Index.Extensions, pagesync.WithLogger(logger))
		go func() {
			defer close(syncDone)
			if err := syncer.Watch(ctx); err != nil {
				logger.Error("page sync stopped", zap.Error(err))
			}
		}()
	} else {
		close(syncDone)
	}

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	logger.Info("Shutting down...")
	stop()
	shutdown(srv, syncDone, components, logger)
	return err
}

var (
	stopTimeout  = 10 * time.Second
	closeTimeout = 30 * time.Second
)

type stopper interface {
	Stop(ctx context.Context) error
}

// shutdown stops the HTTP server, waits for the page sync, then releases the
// model and the database. Closing gets its own deadline so a slow server stop
// cannot leave the model unreleased.
func shutdown(srv stopper, syncDone <-chan struct{}, components *Components, logger *zap.Logger) {
	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	if err := srv.Stop(stopCtx); err != nil {
		logger.Warn("server stop incomplete", zap.Error(err))
	}
	cancelStop()
	<-syncDone

	closeCtx, cancelClose := context.WithTimeout(context.Background(), closeTimeout)
	defer cancelClose()
	if err := components.Close(closeCtx); err != nil {
		logger.Warn("failed to release components", zap.Error(err))
	}
}

// warmUp issues one ordinary request so the model is built before the first
// client call. A failure leaves the slot empty for the next request to retry.
func warmUp(ctx context.Context, svc *lazymodel.Service, logger *zap.Logger) {
	logger.Info("warming up embedding model")
	if _, err := svc.GetEmbedding(ctx, "warm up"); err != nil {
		logger.Warn("warm-up failed", zap.Error(err))
	}
}
