package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocron/embedder/internal/config"
)

type fakeStore struct {
	repo  string
	files []string
	err   error
}

func (s *fakeStore) Ensure(_ context.Context, repo string, files []string) (string, error) {
	s.repo = repo
	s.files = files
	if s.err != nil {
		return "", s.err
	}
	return "/nonexistent", nil
}

func TestLoad_hashBackend(t *testing.T) {
	store := &fakeStore{}
	m, err := Load(context.Background(), config.EmbeddingConfig{Backend: config.BackendHash, Model: config.DefaultModel}, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 384, m.Dimensions())
	assert.Empty(t, store.repo, "hash backend should not fetch files")
}

func TestLoad_unknownModel(t *testing.T) {
	_, err := Load(context.Background(), config.EmbeddingConfig{Backend: config.BackendHash, Model: "nope/nope"}, nil, nil)
	assert.Error(t, err)
}

func TestLoad_onnxFetchFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("network down")}
	_, err := Load(context.Background(), config.EmbeddingConfig{Backend: config.BackendONNX, Model: config.DefaultModel}, store, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
	assert.Equal(t, "Xenova/bge-small-en-v1.5", store.repo)
	assert.Equal(t, []string{"onnx/model.onnx", "vocab.txt"}, store.files)
}

func TestLoad_onnxMissingFiles(t *testing.T) {
	_, err := Load(context.Background(), config.EmbeddingConfig{Backend: config.BackendONNX, Model: config.DefaultModel}, &fakeStore{}, nil)
	assert.Error(t, err, "missing model files must fail construction")
}

func TestLookupVariant(t *testing.T) {
	v, err := LookupVariant(config.DefaultModel)
	require.NoError(t, err)
	assert.Equal(t, PoolingCLS, v.Pooling)
	assert.Contains(t, VariantNames(), "sentence-transformers/all-MiniLM-L6-v2")
}
