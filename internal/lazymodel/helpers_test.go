package lazymodel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holocron/embedder/internal/embedding"
)

// countingModel wraps a HashModel and records how many Embed calls overlap.
type countingModel struct {
	*embedding.HashModel
	dims    int
	hold    time.Duration
	embedFn func(texts []string) ([][]float32, error)

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
	closed    atomic.Bool
}

func newCountingModel(dims int) *countingModel {
	return &countingModel{HashModel: embedding.NewHashModel(dims), dims: dims}
}

func (m *countingModel) Dimensions() int { return m.dims }

func (m *countingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		cur := m.maxActive.Load()
		if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.hold > 0 {
		time.Sleep(m.hold)
	}
	if m.embedFn != nil {
		return m.embedFn(texts)
	}
	return m.HashModel.Embed(ctx, texts)
}

func (m *countingModel) Close() error {
	m.closed.Store(true)
	return nil
}

// countingConstructor counts constructor runs and their overlap.
type countingConstructor struct {
	mu        sync.Mutex
	runs      int
	active    int
	maxActive int
	failures  int // number of leading runs that fail
	delay     time.Duration
	model     func() embedding.Model
}

var errAcquire = errors.New("simulated acquisition failure")

func (p *countingConstructor) construct(ctx context.Context) (embedding.Model, error) {
	p.mu.Lock()
	p.runs++
	run := p.runs
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if run <= p.failures {
		return nil, errAcquire
	}
	if p.model != nil {
		return p.model(), nil
	}
	return embedding.NewHashModel(384), nil
}

func (p *countingConstructor) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func (p *countingConstructor) MaxActive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxActive
}
