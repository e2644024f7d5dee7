package embedding

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/config"
)

// Load builds the configured model. For the ONNX backend it first makes the
// variant's files available through store, which may download them.
func Load(ctx context.Context, cfg config.EmbeddingConfig, store FileStore, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	variant, err := LookupVariant(cfg.Model)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendHash:
		return NewHashModel(variant.Dimensions), nil
	case config.BackendONNX:
		if store == nil {
			return nil, fmt.Errorf("onnx backend needs a model store")
		}
		dir, err := store.Ensure(ctx, variant.Repo, variant.Files())
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", variant.Name, err)
		}
		logger.Debug("model files ready", zap.String("model", variant.Name), zap.String("dir", dir))
		m, err := NewONNXModel(ONNXOptions{
			ModelPath:      filepath.Join(dir, filepath.FromSlash(variant.ModelFile)),
			VocabPath:      filepath.Join(dir, filepath.FromSlash(variant.VocabFile)),
			LibraryPath:    cfg.ONNXLibraryPath,
			Variant:        variant,
			MaxTokens:      cfg.MaxTokens,
			Workers:        cfg.MaxConcurrentInference,
			IntraOpThreads: cfg.IntraOpThreads,
		})
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", variant.Name, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}
}
