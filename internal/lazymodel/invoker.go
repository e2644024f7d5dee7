package lazymodel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Invoker runs one embedding on a ready resource. It does not validate,
// truncate or normalize the text or the vector.
type Invoker struct{}

// Compute embeds text as a batch of one and returns the single vector.
func (Invoker) Compute(ctx context.Context, res Resource, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "lazymodel.Compute")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	vec, err := compute(ctx, res, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Kind: KindInference, Err: err}
	}
	return vec, nil
}

func compute(ctx context.Context, res Resource, text string) ([]float32, error) {
	m := res.Model()
	if m == nil {
		return nil, errors.New("model is not ready")
	}
	out, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("model returned %d vectors for one input", len(out))
	}
	if want := m.Dimensions(); len(out[0]) != want {
		return nil, fmt.Errorf("model returned %d dimensions, want %d", len(out[0]), want)
	}
	return out[0], nil
}
