package modelstore

import (
	"context"
	"fmt"
	"io"
)

// OfflineSource never fetches: every file must already be in the cache.
type OfflineSource struct{}

// Name identifies the source in logs and errors.
func (OfflineSource) Name() string { return "offline" }

// Open always reports the file as missing.
func (OfflineSource) Open(_ context.Context, repo, file string) (io.ReadCloser, int64, error) {
	return nil, 0, fmt.Errorf("%w: %s/%s is not cached and the store is offline", ErrNotFound, repo, file)
}
