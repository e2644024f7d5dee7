// Package storage persists indexed pages and their embeddings.
package storage

import (
	"context"
	"errors"

	"github.com/holocron/embedder/internal/models"
)

// ErrPageNotFound is returned when a page ID is not stored.
var ErrPageNotFound = errors.New("page not found")

// Storage defines page persistence operations.
type Storage interface {
	// UpsertPage inserts or replaces a page together with its embedding.
	UpsertPage(ctx context.Context, page *models.Page, embedding []float32) error
	GetPage(ctx context.Context, id string) (*models.Page, error)
	DeletePage(ctx context.Context, id string) error
	ListPages(ctx context.Context, offset, limit int) ([]*models.Page, error)

	// Embeddings calls fn for every stored page embedding.
	Embeddings(ctx context.Context, fn func(id string, embedding []float32) error) error

	CountPages(ctx context.Context) (int64, error)
	Close() error
}
