package pagesync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocron/embedder/internal/models"
	"github.com/holocron/embedder/internal/storage"
)

type fakeIndex struct {
	mu    sync.Mutex
	pages map[string]*models.PageInput
	fail  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{pages: make(map[string]*models.PageInput)}
}

func (f *fakeIndex) IndexPage(_ context.Context, input *models.PageInput) (*models.IndexResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	if input.Content == "" {
		return &models.IndexResult{ID: input.ID}, nil
	}
	f.pages[input.ID] = input
	return &models.IndexResult{ID: input.ID, Indexed: true}, nil
}

func (f *fakeIndex) RemovePage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pages[id]; !ok {
		return storage.ErrPageNotFound
	}
	delete(f.pages, id)
	return nil
}

func (f *fakeIndex) get(id string) (*models.PageInput, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	return p, ok
}

func (f *fakeIndex) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestSyncer_Matches(t *testing.T) {
	s := New(newFakeIndex(), nil, []string{".txt", "MD"})
	assert.True(t, s.Matches("/a/b.txt"))
	assert.True(t, s.Matches("/a/b.md"))
	assert.True(t, s.Matches("/a/B.TXT"))
	assert.False(t, s.Matches("/a/b.pdf"))

	all := New(newFakeIndex(), nil, nil)
	assert.True(t, all.Matches("/a/b.anything"))
}

func TestSyncer_IndexFile(t *testing.T) {
	idx := newFakeIndex()
	s := New(idx, nil, nil)
	path := filepath.Join(t.TempDir(), "meeting notes.txt")
	writeFile(t, path, "quarterly planning")

	res, err := s.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, res.Indexed)
	assert.Equal(t, PageID(path), res.ID)

	page, ok := idx.get(res.ID)
	require.True(t, ok)
	assert.Equal(t, "meeting notes", page.Title)
	assert.Equal(t, "quarterly planning", page.Content)
}

func TestSyncer_RemoveFileNeverIndexed(t *testing.T) {
	s := New(newFakeIndex(), nil, nil)
	assert.NoError(t, s.RemoveFile(context.Background(), "/nowhere/x.txt"))
}

func TestSyncer_RemoveDir(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "projects", "a.txt")
	deeper := filepath.Join(dir, "projects", "old", "b.txt")
	sibling := filepath.Join(dir, "projects-archive", "c.txt")
	for _, p := range []string{inside, deeper, sibling} {
		writeFile(t, p, "content of "+filepath.Base(p))
	}

	idx := newFakeIndex()
	s := New(idx, []string{dir}, nil)
	_, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, idx.len())

	n, err := s.RemoveDir(context.Background(), filepath.Join(dir, "projects"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, ok := idx.get(PageID(sibling))
	assert.True(t, ok, "a directory sharing the name prefix is kept")
	assert.Equal(t, 1, idx.len())

	n, err = s.RemoveDir(context.Background(), filepath.Join(dir, "projects"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncer_Scan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "sub", "b.md"), "beta")
	writeFile(t, filepath.Join(dir, "c.log"), "ignored")
	writeFile(t, filepath.Join(dir, "empty.txt"), "")

	idx := newFakeIndex()
	s := New(idx, []string{dir, filepath.Join(dir, "missing")}, []string{".txt", ".md"})
	n, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, idx.len())
	_, ok := idx.get(PageID(filepath.Join(dir, "sub", "b.md")))
	assert.True(t, ok)
}

func TestSyncer_ScanSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")

	idx := newFakeIndex()
	idx.fail = errors.New("model unavailable")
	n, err := New(idx, []string{dir}, nil).Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncer_Watch(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.txt")
	writeFile(t, existing, "already here")

	idx := newFakeIndex()
	s := New(idx, []string{dir}, []string{".txt"}, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := idx.get(PageID(existing))
		return ok
	}, 5*time.Second, 10*time.Millisecond, "existing file is scanned")

	created := filepath.Join(dir, "nested", "new.txt")
	writeFile(t, created, "fresh content")
	require.Eventually(t, func() bool {
		_, ok := idx.get(PageID(created))
		return ok
	}, 5*time.Second, 10*time.Millisecond, "file in new directory is indexed")

	writeFile(t, existing, "changed")
	require.Eventually(t, func() bool {
		p, ok := idx.get(PageID(existing))
		return ok && p.Content == "changed"
	}, 5*time.Second, 10*time.Millisecond, "modified file is re-indexed")

	require.NoError(t, os.Remove(existing))
	require.Eventually(t, func() bool {
		_, ok := idx.get(PageID(existing))
		return !ok
	}, 5*time.Second, 10*time.Millisecond, "removed file is dropped")

	moved := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, os.Rename(filepath.Join(dir, "nested"), moved))
	require.Eventually(t, func() bool {
		_, ok := idx.get(PageID(created))
		return !ok
	}, 5*time.Second, 10*time.Millisecond, "files in a directory moved away are dropped")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
