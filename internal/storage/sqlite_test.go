package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/holocron/embedder/internal/models"
)

func TestSQLiteStorage_CRUD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	page := &models.Page{ID: "p1", Title: "Title", Content: "<p>Content</p>"}
	if err := store.UpsertPage(ctx, page, []float32{0.1, 0.2, 0.3}); err != nil {
		t.Fatal(err)
	}
	if page.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetPage(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Title" || got.Content != "<p>Content</p>" {
		t.Errorf("got %+v", got)
	}

	page.Title = "Updated"
	if err := store.UpsertPage(ctx, page, []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetPage(ctx, "p1")
	if got.Title != "Updated" {
		t.Errorf("expected Updated, got %s", got.Title)
	}

	list, err := store.ListPages(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 page, got %d", len(list))
	}

	if err := store.DeletePage(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetPage(ctx, "p1"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound after delete, got %v", err)
	}
	if err := store.DeletePage(ctx, "p1"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound deleting twice, got %v", err)
	}
}

func TestSQLiteStorage_Embeddings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emb.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	want := map[string][]float32{
		"a": {1, 0, -0.5},
		"b": {0.25, 0.75, 0},
	}
	for id, vec := range want {
		if err := store.UpsertPage(ctx, &models.Page{ID: id, Content: id}, vec); err != nil {
			t.Fatal(err)
		}
	}

	got := map[string][]float32{}
	err = store.Embeddings(ctx, func(id string, embedding []float32) error {
		got[id] = embedding
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(got))
	}
	for id, vec := range want {
		for i := range vec {
			if got[id][i] != vec[i] {
				t.Errorf("%s[%d] = %v, want %v", id, i, got[id][i], vec[i])
			}
		}
	}

	stop := errors.New("stop")
	calls := 0
	err = store.Embeddings(ctx, func(string, []float32) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("expected early stop after 1 call, got %v after %d", err, calls)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	n, err := store.CountPages(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountPages: %v, %d", err, n)
	}
	_ = store.UpsertPage(ctx, &models.Page{ID: "x", Content: "c"}, []float32{1})
	_ = store.UpsertPage(ctx, &models.Page{ID: "x", Content: "c2"}, []float32{1})
	n, _ = store.CountPages(ctx)
	if n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}
}
