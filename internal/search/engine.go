// Package search indexes pages by embedding and ranks them against a query.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/models"
	"github.com/holocron/embedder/internal/storage"
	"github.com/holocron/embedder/internal/vector"
	"github.com/holocron/embedder/pkg/utils"
)

const snippetLength = 160

// Embedder turns text into a vector. *lazymodel.Service implements it.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// PageGauge is told the page count after every change.
type PageGauge interface {
	SetPagesIndexed(n int)
}

// Engine keeps pages in storage and their vectors in an in-memory index. The
// index is created with the dimension of the first vector it sees, so nothing
// here forces the model to load.
type Engine struct {
	storage  storage.Storage
	embedder Embedder
	logger   *zap.Logger
	gauge    PageGauge

	mu    sync.RWMutex
	index *vector.MemoryIndex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPageGauge reports page counts to g.
func WithPageGauge(g PageGauge) Option {
	return func(e *Engine) {
		e.gauge = g
	}
}

// NewEngine creates a search engine over store using embedder for vectors.
func NewEngine(store storage.Storage, embedder Embedder, opts ...Option) *Engine {
	e := &Engine{storage: store, embedder: embedder, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fills the in-memory index from storage. Vectors whose length differs
// from the first one loaded are skipped; those pages need reindexing.
func (e *Engine) Load(ctx context.Context) error {
	loaded, skipped := 0, 0
	err := e.storage.Embeddings(ctx, func(id string, vec []float32) error {
		idx, err := e.indexFor(len(vec))
		if err != nil {
			skipped++
			e.logger.Warn("skipping stored embedding", zap.String("page_id", id), zap.Error(err))
			return nil
		}
		if err := idx.Upsert(ctx, id, vec); err != nil {
			return err
		}
		loaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load page index: %w", err)
	}
	e.logger.Info("page index loaded", zap.Int("pages", loaded), zap.Int("skipped", skipped))
	e.reportCount()
	return nil
}

// IndexPage embeds the plain text of a page and stores it. Pages with no text
// are not indexed. A missing ID is generated.
func (e *Engine) IndexPage(ctx context.Context, input *models.PageInput) (*models.IndexResult, error) {
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	text := utils.PlainText(input.Content)
	if text == "" {
		e.logger.Debug("page has no text, not indexed", zap.String("page_id", id))
		return &models.IndexResult{ID: id, Indexed: false}, nil
	}

	vec, err := e.embedder.GetEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding page %s: %w", id, err)
	}
	idx, err := e.indexFor(len(vec))
	if err != nil {
		return nil, err
	}

	page := &models.Page{ID: id, Title: input.Title, Content: input.Content}
	if existing, err := e.storage.GetPage(ctx, id); err == nil {
		page.CreatedAt = existing.CreatedAt
	}
	if err := e.storage.UpsertPage(ctx, page, vec); err != nil {
		return nil, fmt.Errorf("storing page %s: %w", id, err)
	}
	if err := idx.Upsert(ctx, id, vec); err != nil {
		return nil, err
	}
	e.logger.Debug("page indexed", zap.String("page_id", id), zap.Int("text_length", len(text)))
	e.reportCount()
	return &models.IndexResult{ID: id, Indexed: true}, nil
}

// RemovePage deletes a page from storage and the index.
func (e *Engine) RemovePage(ctx context.Context, id string) error {
	if err := e.storage.DeletePage(ctx, id); err != nil {
		return err
	}
	e.mu.RLock()
	idx := e.index
	e.mu.RUnlock()
	if idx != nil {
		if err := idx.Remove(ctx, []string{id}); err != nil {
			return err
		}
	}
	e.reportCount()
	return nil
}

// Search embeds the query and returns the closest pages, best first. A blank
// query returns no results without touching the model.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	response := &models.SearchResponse{Results: []*models.SearchResult{}}
	if !query.Normalize() {
		return response, nil
	}
	response.Query = query.Query

	e.mu.RLock()
	idx := e.index
	e.mu.RUnlock()
	if idx == nil || idx.Size() == 0 {
		response.QueryTime = time.Since(startTime).Milliseconds()
		return response, nil
	}

	vec, err := e.embedder.GetEmbedding(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := idx.Search(ctx, vec, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	for _, hit := range hits {
		if query.MinScore > 0 && hit.Score < query.MinScore {
			continue
		}
		page, err := e.storage.GetPage(ctx, hit.ID)
		if err != nil {
			e.logger.Warn("indexed page missing from storage", zap.String("page_id", hit.ID), zap.Error(err))
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			ID:      page.ID,
			Title:   page.Title,
			Snippet: utils.Truncate(utils.PlainText(page.Content), snippetLength),
			Score:   hit.Score,
			Rank:    len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

// Count returns the number of stored pages.
func (e *Engine) Count(ctx context.Context) (int64, error) {
	return e.storage.CountPages(ctx)
}

func (e *Engine) indexFor(dims int) (*vector.MemoryIndex, error) {
	e.mu.RLock()
	idx := e.index
	e.mu.RUnlock()
	if idx == nil {
		e.mu.Lock()
		if e.index == nil {
			var err error
			if e.index, err = vector.NewMemoryIndex(dims); err != nil {
				e.mu.Unlock()
				return nil, err
			}
		}
		idx = e.index
		e.mu.Unlock()
	}
	if idx.Dimensions() != dims {
		return nil, fmt.Errorf("embedding has %d dimensions, index holds %d", dims, idx.Dimensions())
	}
	return idx, nil
}

func (e *Engine) reportCount() {
	if e.gauge == nil {
		return
	}
	n, err := e.storage.CountPages(context.Background())
	if err != nil {
		e.logger.Warn("failed to count pages", zap.Error(err))
		return
	}
	e.gauge.SetPagesIndexed(int(n))
}
