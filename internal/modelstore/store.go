// Package modelstore makes model files available in a local cache directory,
// fetching missing files from a remote source.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound reports that a source does not have the requested file.
var ErrNotFound = errors.New("model file not found")

// Source opens model files by repository and repository-relative path.
// Size is -1 when unknown.
type Source interface {
	Name() string
	Open(ctx context.Context, repo, file string) (rc io.ReadCloser, size int64, err error)
}

// Store is a directory of cached model files backed by a Source.
type Store struct {
	dir      string
	source   Source
	logger   *zap.Logger
	progress bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for fetch and progress messages.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress enables download progress logging.
func WithProgress(enabled bool) StoreOption {
	return func(s *Store) {
		s.progress = enabled
	}
}

// NewStore returns a store caching files under dir.
func NewStore(dir string, source Source, opts ...StoreOption) *Store {
	s := &Store{dir: dir, source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RepoDir returns the directory holding repo's cached files.
func (s *Store) RepoDir(repo string) string {
	return filepath.Join(s.dir, "models--"+strings.ReplaceAll(repo, "/", "--"))
}

// Ensure fetches any of files not yet cached for repo and returns the repo directory.
// Files already present are not fetched again. A failed fetch leaves no partial file behind.
func (s *Store) Ensure(ctx context.Context, repo string, files []string) (string, error) {
	root := s.RepoDir(repo)
	for _, file := range files {
		dst := filepath.Join(root, filepath.FromSlash(file))
		if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
			continue
		}
		if err := s.fetch(ctx, repo, file, dst); err != nil {
			return "", fmt.Errorf("%s %s/%s: %w", s.source.Name(), repo, file, err)
		}
	}
	return root, nil
}

func (s *Store) fetch(ctx context.Context, repo, file, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	rc, size, err := s.source.Open(ctx, repo, file)
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	s.logger.Info("downloading model file",
		zap.String("source", s.source.Name()),
		zap.String("repo", repo),
		zap.String("file", file),
		zap.Int64("bytes", size),
	)
	var w io.Writer = tmp
	if s.progress {
		w = io.MultiWriter(tmp, newProgressLogger(s.logger, file, size))
	}
	n, err := io.Copy(w, rc)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("download truncated: got %d of %d bytes", n, size)
	}
	if n == 0 {
		return fmt.Errorf("download returned an empty file")
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("install file: %w", err)
	}
	s.logger.Info("model file cached", zap.String("file", file), zap.String("path", dst))
	return nil
}
