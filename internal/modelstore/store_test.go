package modelstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memSource struct {
	mu     sync.Mutex
	files  map[string][]byte
	opens  map[string]int
	short  bool
	failOn string
}

func newMemSource(files map[string][]byte) *memSource {
	return &memSource{files: files, opens: map[string]int{}}
}

func (s *memSource) Name() string { return "mem" }

func (s *memSource) Open(_ context.Context, repo, file string) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := repo + "/" + file
	s.opens[key]++
	if key == s.failOn {
		return nil, 0, errors.New("boom")
	}
	b, ok := s.files[key]
	if !ok {
		return nil, 0, ErrNotFound
	}
	size := int64(len(b))
	if s.short {
		size++
	}
	return io.NopCloser(bytes.NewReader(b)), size, nil
}

func TestStore_EnsureFetchesOnce(t *testing.T) {
	src := newMemSource(map[string][]byte{
		"org/model/onnx/model.onnx": []byte("weights"),
		"org/model/vocab.txt":       []byte("[PAD]\n"),
	})
	store := NewStore(t.TempDir(), src)
	files := []string{"onnx/model.onnx", "vocab.txt"}

	dir, err := store.Ensure(context.Background(), "org/model", files)
	require.NoError(t, err)
	assert.Equal(t, store.RepoDir("org/model"), dir)
	assert.Equal(t, "models--org--model", filepath.Base(dir))

	b, err := os.ReadFile(filepath.Join(dir, "onnx", "model.onnx"))
	require.NoError(t, err)
	assert.Equal(t, "weights", string(b))

	_, err = store.Ensure(context.Background(), "org/model", files)
	require.NoError(t, err)
	assert.Equal(t, 1, src.opens["org/model/onnx/model.onnx"])
	assert.Equal(t, 1, src.opens["org/model/vocab.txt"])
}

func TestStore_EnsureNotFound(t *testing.T) {
	store := NewStore(t.TempDir(), newMemSource(nil))
	_, err := store.Ensure(context.Background(), "org/model", []string{"vocab.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "mem org/model/vocab.txt")
}

func TestStore_TruncatedDownloadLeavesNoFile(t *testing.T) {
	src := newMemSource(map[string][]byte{"org/model/vocab.txt": []byte("abc")})
	src.short = true
	store := NewStore(t.TempDir(), src)

	_, err := store.Ensure(context.Background(), "org/model", []string{"vocab.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")

	entries, err := os.ReadDir(store.RepoDir("org/model"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

func TestStore_SourceErrorStopsEnsure(t *testing.T) {
	src := newMemSource(map[string][]byte{
		"org/model/a": []byte("a"),
		"org/model/b": []byte("b"),
	})
	src.failOn = "org/model/a"
	store := NewStore(t.TempDir(), src)

	_, err := store.Ensure(context.Background(), "org/model", []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, 0, src.opens["org/model/b"])
}

func TestStore_ProgressLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	src := newMemSource(map[string][]byte{"org/model/big": bytes.Repeat([]byte{1}, 100)})
	store := NewStore(t.TempDir(), src, WithLogger(zap.New(core)), WithProgress(true))

	_, err := store.Ensure(context.Background(), "org/model", []string{"big"})
	require.NoError(t, err)
	assert.Equal(t, 10, logs.FilterMessage("download progress").Len())
	assert.Equal(t, 1, logs.FilterMessage("model file cached").Len())
}

func TestOfflineSource(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, OfflineSource{})

	_, err := store.Ensure(context.Background(), "org/model", []string{"vocab.txt"})
	assert.ErrorIs(t, err, ErrNotFound)

	cached := filepath.Join(store.RepoDir("org/model"), "vocab.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(cached), 0755))
	require.NoError(t, os.WriteFile(cached, []byte("[PAD]"), 0644))
	_, err = store.Ensure(context.Background(), "org/model", []string{"vocab.txt"})
	assert.NoError(t, err)
}
