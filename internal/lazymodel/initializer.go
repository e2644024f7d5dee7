package lazymodel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/embedding"
)

var tracer = otel.Tracer("github.com/holocron/embedder/internal/lazymodel")

// Constructor builds the configured model, downloading its files if needed.
// embedding.Load bound to a config and store is the production constructor.
type Constructor func(ctx context.Context) (embedding.Model, error)

// Initializer builds the model on behalf of the request that finds the slot
// empty. It never retries on its own.
type Initializer struct {
	construct Constructor
	logger    *zap.Logger
	recorder  Recorder
	attempts  atomic.Int64
}

// NewInitializer wraps construct. A nil logger or recorder discards output.
func NewInitializer(construct Constructor, logger *zap.Logger, recorder Recorder) *Initializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Initializer{construct: construct, logger: logger, recorder: recorder}
}

// Attempts is the number of times Construct has run.
func (i *Initializer) Attempts() int64 { return i.attempts.Load() }

// Construct builds one model. Every failure is a KindConstruction error.
func (i *Initializer) Construct(ctx context.Context) (embedding.Model, error) {
	ctx, span := tracer.Start(ctx, "lazymodel.Construct")
	defer span.End()

	attempt := i.attempts.Add(1)
	span.SetAttributes(attribute.Int64("attempt", attempt))
	i.logger.Info("constructing embedding model", zap.Int64("attempt", attempt))
	start := time.Now()

	m, err := i.build(ctx)
	elapsed := time.Since(start)
	if err != nil {
		i.recorder.ObserveConstruction("failure", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Error("embedding model construction failed",
			zap.Int64("attempt", attempt),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindConstruction, Err: err}
	}

	i.recorder.ObserveConstruction("ok", elapsed)
	span.SetAttributes(attribute.Int("dimensions", m.Dimensions()))
	i.logger.Info("embedding model ready",
		zap.Int64("attempt", attempt),
		zap.Int("dimensions", m.Dimensions()),
		zap.Duration("elapsed", elapsed),
	)
	return m, nil
}

func (i *Initializer) build(ctx context.Context) (embedding.Model, error) {
	if i.construct == nil {
		return nil, errors.New("no model constructor configured")
	}
	m, err := i.construct(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("constructor returned no model")
	}
	if d := m.Dimensions(); d <= 0 {
		_ = m.Close()
		return nil, fmt.Errorf("model reports invalid dimensions %d", d)
	}
	return m, nil
}
