package lazymodel

import (
	"errors"
	"fmt"
)

// Kind classifies a failure on the embedding request path.
type Kind int

const (
	// KindAccess means the slot is poisoned or closed. Only a restart recovers.
	KindAccess Kind = iota + 1
	// KindConstruction means the model could not be built. The slot stays empty.
	KindConstruction
	// KindInference means the ready model could not embed the input. The slot stays ready.
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "model access failed"
	case KindConstruction:
		return "model construction failed"
	case KindInference:
		return "embedding inference failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned for every failure GetEmbedding classifies.
type Error struct {
	Kind Kind
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrAccess       = &Error{Kind: KindAccess}
	ErrConstruction = &Error{Kind: KindConstruction}
	ErrInference    = &Error{Kind: KindInference}
)

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message flattens err into the single string shown to callers outside the
// service. It returns "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccess):
		return "access_failure"
	case errors.Is(err, ErrConstruction):
		return "construction_failure"
	case errors.Is(err, ErrInference):
		return "inference_failure"
	default:
		return "canceled"
	}
}
