package lazymodel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("request: %w", &Error{Kind: KindConstruction, Err: cause})

	assert.ErrorIs(t, err, ErrConstruction)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInference)
	assert.NotErrorIs(t, err, ErrAccess)
	assert.Equal(t, KindConstruction, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(cause))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "embedding inference failed: bad input",
		Message(&Error{Kind: KindInference, Err: errors.New("bad input")}))
	assert.Equal(t, "model access failed", Message(ErrAccess))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "access_failure", Outcome(&Error{Kind: KindAccess, Err: ErrClosed}))
	assert.Equal(t, "construction_failure", Outcome(ErrConstruction))
	assert.Equal(t, "inference_failure", Outcome(ErrInference))
}
