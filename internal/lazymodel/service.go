package lazymodel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/embedding"
)

// Service is the GetEmbedding request path: result cache, then the slot.
type Service struct {
	slot     *Slot
	init     *Initializer
	invoker  Invoker
	cache    *embedding.EmbeddingCache
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets where measurements go.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithCache serves repeated texts from cache. A nil cache disables caching.
func WithCache(c *embedding.EmbeddingCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// NewService returns a service over slot that builds the model with construct
// on first use.
func NewService(slot *Slot, construct Constructor, opts ...Option) *Service {
	s := &Service{
		slot:     slot,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.init = NewInitializer(construct, s.logger, s.recorder)
	return s
}

// GetEmbedding returns the embedding of text, constructing the model first if
// no request has done so successfully yet.
func (s *Service) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "lazymodel.GetEmbedding",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("text.length", len(text))),
	)
	defer span.End()
	start := time.Now()

	// A poisoned or closed slot fails every request, cached texts included.
	if s.slot.Poisoned() == nil {
		if vec, ok := s.cache.Get(text); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			s.recorder.ObserveRequest("cache", time.Since(start))
			return vec, nil
		}
	}

	s.recorder.AddInFlight(1)
	vec, err := s.embed(ctx, text)
	s.recorder.AddInFlight(-1)
	s.recorder.ObserveRequest(Outcome(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("embedding request failed",
			zap.String("outcome", Outcome(err)),
			zap.Int("text_length", len(text)),
			zap.Error(err),
		)
		return nil, err
	}
	s.cache.Set(text, vec)
	return vec, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.slot.Ready() {
		return s.slot.WithSharedAccess(ctx, func(res Resource) ([]float32, error) {
			return s.invoker.Compute(ctx, res, text)
		})
	}
	return s.slot.WithExclusiveAccess(ctx, func(res *Resource) ([]float32, error) {
		if res.State() == StateAbsent {
			m, err := s.init.Construct(ctx)
			if err != nil {
				return nil, err
			}
			res.Install(m)
			s.recorder.SetReady(true)
		}
		return s.invoker.Compute(ctx, *res, text)
	})
}

// State reports the model state.
func (s *Service) State() State { return s.slot.State() }

// Dimensions returns the model's vector length, or 0 before the model is ready.
func (s *Service) Dimensions() int { return s.slot.Dimensions() }

// Attempts is the number of construction attempts made so far.
func (s *Service) Attempts() int64 { return s.init.Attempts() }

// Close releases the model. Later requests fail with an access error.
func (s *Service) Close(ctx context.Context) error {
	s.recorder.SetReady(false)
	return s.slot.Close(ctx)
}
