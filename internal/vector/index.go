// Package vector holds page embeddings in memory for similarity search.
package vector

import "context"

// VectorIndex stores one vector per ID and ranks them against a query.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vector []float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Size() int
	Close() error
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID    string
	Score float64 // cosine similarity
}
