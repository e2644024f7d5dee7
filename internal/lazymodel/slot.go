package lazymodel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/holocron/embedder/internal/embedding"
)

// State is the lifecycle state of the slot's model.
type State int

const (
	StateAbsent State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "absent"
}

// Resource is the model held by a Slot. The zero value is Absent.
type Resource struct {
	model embedding.Model
}

// State reports whether a model is installed.
func (r Resource) State() State {
	if r.model == nil {
		return StateAbsent
	}
	return StateReady
}

// Model returns the installed model, or nil when Absent.
func (r Resource) Model() embedding.Model { return r.model }

// Install stores m. Installing over a ready resource is a no-op: Ready is terminal.
func (r *Resource) Install(m embedding.Model) {
	if r.model == nil {
		r.model = m
	}
}

// ErrClosed is the cause reported after Close.
var ErrClosed = errors.New("model slot is closed")

// Slot is the guarded holder of the process's single model. Exclusive access
// takes the whole capacity; shared access takes one unit.
type Slot struct {
	sem      *semaphore.Weighted
	capacity int64

	// res is written only under exclusive access.
	res   Resource
	ready atomic.Bool

	poison atomic.Pointer[Error]
}

// NewSlot returns an empty slot allowing up to capacity concurrent shared holders.
// A capacity below 1 is treated as 1.
func NewSlot(capacity int) *Slot {
	if capacity < 1 {
		capacity = 1
	}
	return &Slot{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Capacity is the maximum number of concurrent shared holders.
func (s *Slot) Capacity() int { return int(s.capacity) }

// State reports the model state without waiting for access.
func (s *Slot) State() State {
	if s.ready.Load() {
		return StateReady
	}
	return StateAbsent
}

// Ready reports whether a model is installed.
func (s *Slot) Ready() bool { return s.ready.Load() }

// Dimensions returns the installed model's vector length, or 0 when Absent.
func (s *Slot) Dimensions() int {
	if !s.ready.Load() {
		return 0
	}
	return s.res.model.Dimensions()
}

// Poisoned returns the access error every request now fails with, or nil.
func (s *Slot) Poisoned() error {
	if p := s.poison.Load(); p != nil {
		return p
	}
	return nil
}

// WithExclusiveAccess runs fn as the only holder. fn may install a model
// into the resource. Access is released on every exit path.
func (s *Slot) WithExclusiveAccess(ctx context.Context, fn func(*Resource) ([]float32, error)) ([]float32, error) {
	if err := s.acquire(ctx, s.capacity); err != nil {
		return nil, err
	}
	defer s.sem.Release(s.capacity)
	return s.run(func() ([]float32, error) {
		defer func() { s.ready.Store(s.res.model != nil) }()
		return fn(&s.res)
	})
}

// WithSharedAccess runs fn on a snapshot of the resource alongside up to
// Capacity()-1 other shared holders.
func (s *Slot) WithSharedAccess(ctx context.Context, fn func(Resource) ([]float32, error)) ([]float32, error) {
	if err := s.acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)
	res := s.res
	return s.run(func() ([]float32, error) {
		return fn(res)
	})
}

// Close releases the model and poisons the slot so later requests fail with
// ErrClosed. It waits for in-flight holders.
func (s *Slot) Close(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, s.capacity); err != nil {
		return fmt.Errorf("waiting for model access: %w", err)
	}
	defer s.sem.Release(s.capacity)
	if !s.poison.CompareAndSwap(nil, &Error{Kind: KindAccess, Err: ErrClosed}) && errors.Is(s.poison.Load(), ErrClosed) {
		return nil
	}
	if s.res.model == nil {
		return nil
	}
	return s.res.model.Close()
}

func (s *Slot) acquire(ctx context.Context, n int64) error {
	if p := s.poison.Load(); p != nil {
		return p
	}
	if err := s.sem.Acquire(ctx, n); err != nil {
		return fmt.Errorf("waiting for model access: %w", err)
	}
	if p := s.poison.Load(); p != nil {
		s.sem.Release(n)
		return p
	}
	return nil
}

// run converts a panic in fn into a poisoned slot.
func (s *Slot) run(fn func() ([]float32, error)) (vec []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			p := &Error{Kind: KindAccess, Err: fmt.Errorf("panic while holding model access: %v", r)}
			s.poison.CompareAndSwap(nil, p)
			vec, err = nil, s.poison.Load()
		}
	}()
	return fn()
}
