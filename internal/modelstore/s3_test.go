package modelstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocron/embedder/internal/config"
)

func TestS3Source_ObjectKey(t *testing.T) {
	src, err := NewS3Source(config.S3Config{Endpoint: "localhost:9000", Bucket: "models", Prefix: "mirror"})
	require.NoError(t, err)
	assert.Equal(t, "s3", src.Name())
	assert.Equal(t, "mirror/Xenova/bge-small-en-v1.5/vocab.txt", src.ObjectKey("Xenova/bge-small-en-v1.5", "vocab.txt"))

	src.prefix = ""
	assert.Equal(t, "org/model/onnx/model.onnx", src.ObjectKey("org/model", "onnx/model.onnx"))
}

func TestNewFromConfig(t *testing.T) {
	base := config.ModelStoreConfig{CacheDir: t.TempDir(), BaseURL: "https://huggingface.co"}

	for _, tc := range []struct {
		source string
		name   string
	}{
		{config.SourceHTTP, "http"},
		{config.SourceOffline, "offline"},
	} {
		cfg := base
		cfg.Source = tc.source
		store, err := NewFromConfig(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.name, store.source.Name())
	}

	cfg := base
	cfg.Source = "ftp"
	_, err := NewFromConfig(cfg, nil)
	assert.Error(t, err)
}
