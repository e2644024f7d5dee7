package embedding

import (
	"context"
	"math"

	"github.com/holocron/embedder/pkg/utils"
)

// HashModel is a deterministic model that needs no weights. It returns a fixed-dimension
// vector derived from the text hash so that the same text always gets the same embedding.
type HashModel struct {
	dimensions int
}

// NewHashModel returns a model that produces deterministic embeddings of the given dimensions.
func NewHashModel(dimensions int) *HashModel {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashModel{dimensions: dimensions}
}

// Embed returns one unit-length vector per text.
func (m *HashModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *HashModel) vector(text string) []float32 {
	h := HashString(text)
	emb := make([]float32, m.dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (m *HashModel) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for HashModel.
func (m *HashModel) Close() error {
	return nil
}
