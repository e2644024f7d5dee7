// Package pagesync keeps the page index in step with the files in a set of
// directories: an initial scan, then fsnotify events for as long as it runs.
package pagesync

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/models"
	"github.com/holocron/embedder/internal/storage"
)

const defaultDebounce = 400 * time.Millisecond

// PageIndex is the part of the search engine a Syncer writes to.
type PageIndex interface {
	IndexPage(ctx context.Context, input *models.PageInput) (*models.IndexResult, error)
	RemovePage(ctx context.Context, id string) error
}

// Syncer indexes files from dirs whose extension is in extensions.
type Syncer struct {
	index      PageIndex
	dirs       []string
	extensions []string
	debounce   time.Duration
	logger     *zap.Logger

	mu    sync.Mutex
	files map[string]struct{} // absolute paths indexed by this Syncer
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// WithDebounce sets how long a file must stay quiet before it is re-indexed.
func WithDebounce(d time.Duration) Option {
	return func(s *Syncer) { s.debounce = d }
}

// New creates a Syncer. An empty extensions list matches every file.
func New(index PageIndex, dirs, extensions []string, opts ...Option) *Syncer {
	s := &Syncer{
		index:      index,
		dirs:       dirs,
		extensions: extensions,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		files:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Matches reports whether path has one of the configured extensions.
func (s *Syncer) Matches(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range s.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// IndexFile extracts the file's text and upserts it as a page titled with the
// file name.
func (s *Syncer) IndexFile(ctx context.Context, path string) (*models.IndexResult, error) {
	text, err := Extract(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	res, err := s.index.IndexPage(ctx, &models.PageInput{
		ID:      PageID(path),
		Title:   strings.TrimSuffix(name, filepath.Ext(name)),
		Content: text,
	})
	if err != nil {
		return nil, err
	}
	if res.Indexed {
		s.mu.Lock()
		s.files[absPath(path)] = struct{}{}
		s.mu.Unlock()
	}
	return res, nil
}

// RemoveFile drops the file's page. A file that was never indexed is not an error.
func (s *Syncer) RemoveFile(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.files, absPath(path))
	s.mu.Unlock()
	err := s.index.RemovePage(ctx, PageID(path))
	if errors.Is(err, storage.ErrPageNotFound) {
		return nil
	}
	return err
}

// RemoveDir drops the pages of every file this Syncer indexed under dir and
// returns how many were removed.
func (s *Syncer) RemoveDir(ctx context.Context, dir string) (int, error) {
	dir = absPath(dir)
	var under []string
	s.mu.Lock()
	for path := range s.files {
		if inDir(dir, path) {
			under = append(under, path)
		}
	}
	s.mu.Unlock()

	for i, path := range under {
		if err := s.RemoveFile(ctx, path); err != nil {
			return i, err
		}
	}
	return len(under), nil
}

// Scan indexes every matching file under the directories and returns how many
// were indexed. Failures on single files are logged and skipped; missing
// directories are skipped.
func (s *Syncer) Scan(ctx context.Context) (int, error) {
	indexed := 0
	for _, dir := range s.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() || !s.Matches(path) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.sync(ctx, path) {
				indexed++
			}
			return nil
		})
		if err != nil {
			return indexed, err
		}
	}
	s.logger.Info("page scan complete", zap.Strings("dirs", s.dirs), zap.Int("indexed", indexed))
	return indexed, nil
}

// Watch scans the directories and then follows changes until ctx is done.
// It returns nil on cancellation.
func (s *Syncer) Watch(ctx context.Context) error {
	w := &watcher{
		dirs:     s.dirs,
		match:    s.Matches,
		onChange: func(path string) { s.sync(ctx, path) },
		onRemove: func(path string) {
			if err := s.RemoveFile(ctx, path); err != nil {
				s.logger.Warn("failed to remove page", zap.String("path", path), zap.Error(err))
				return
			}
			s.logger.Debug("page removed", zap.String("path", path))
		},
		onRemoveDir: func(dir string) {
			n, err := s.RemoveDir(ctx, dir)
			if err != nil {
				s.logger.Warn("failed to remove pages under directory", zap.String("dir", dir), zap.Error(err))
				return
			}
			s.logger.Debug("directory pages removed", zap.String("dir", dir), zap.Int("pages", n))
		},
		debounce: s.debounce,
		logger:   s.logger,
	}
	if err := w.start(); err != nil {
		return err
	}
	if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("page scan failed", zap.Error(err))
	}
	w.run(ctx)
	return nil
}

func (s *Syncer) sync(ctx context.Context, path string) bool {
	res, err := s.IndexFile(ctx, path)
	if err != nil {
		s.logger.Warn("failed to index file", zap.String("path", path), zap.Error(err))
		return false
	}
	if !res.Indexed {
		// No text left; drop any earlier version of the page.
		if err := s.RemoveFile(ctx, path); err != nil {
			s.logger.Warn("failed to remove page", zap.String("path", path), zap.Error(err))
		}
		return false
	}
	s.logger.Debug("file indexed", zap.String("path", path), zap.String("page_id", res.ID))
	return true
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// inDir reports whether path is dir or lies under it.
func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
