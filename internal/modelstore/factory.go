package modelstore

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/config"
)

// NewFromConfig builds the store and source selected by cfg.
func NewFromConfig(cfg config.ModelStoreConfig, logger *zap.Logger) (*Store, error) {
	var source Source
	switch cfg.Source {
	case config.SourceHTTP:
		source = NewHTTPSource(cfg.BaseURL, &http.Client{Timeout: 30 * time.Minute})
	case config.SourceS3:
		s3, err := NewS3Source(cfg.S3)
		if err != nil {
			return nil, err
		}
		source = s3
	case config.SourceOffline:
		source = OfflineSource{}
	default:
		return nil, fmt.Errorf("unknown model store source %q", cfg.Source)
	}
	return NewStore(cfg.CacheDir, source,
		WithLogger(logger),
		WithProgress(cfg.ShowDownloadProgressOrDefault()),
	), nil
}
