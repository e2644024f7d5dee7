package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/holocron/embedder/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		title TEXT,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_updated_at ON pages(updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertPage inserts a page or replaces the title, content and embedding of an
// existing one. CreatedAt is kept on replace.
func (s *SQLiteStorage) UpsertPage(ctx context.Context, page *models.Page, embedding []float32) error {
	now := time.Now()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (id, title, content, embedding, dimensions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   content = excluded.content,
		   embedding = excluded.embedding,
		   dimensions = excluded.dimensions,
		   updated_at = excluded.updated_at`,
		page.ID, page.Title, page.Content, encodeEmbedding(embedding), len(embedding), page.CreatedAt, page.UpdatedAt,
	)
	return err
}

// GetPage returns a page by ID.
func (s *SQLiteStorage) GetPage(ctx context.Context, id string) (*models.Page, error) {
	var page models.Page
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at
		 FROM pages WHERE id = ?`, id,
	).Scan(&page.ID, &page.Title, &page.Content, &page.CreatedAt, &page.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// DeletePage removes a page by ID.
func (s *SQLiteStorage) DeletePage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return nil
}

// ListPages returns pages, most recently updated first.
func (s *SQLiteStorage) ListPages(ctx context.Context, offset, limit int) ([]*models.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, created_at, updated_at
		 FROM pages ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.ID, &page.Title, &page.Content, &page.CreatedAt, &page.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, &page)
	}
	return pages, rows.Err()
}

// Embeddings streams every stored embedding to fn. It stops at the first error fn returns.
func (s *SQLiteStorage) Embeddings(ctx context.Context, fn func(id string, embedding []float32) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, dimensions FROM pages`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var blob []byte
		var dims int
		if err := rows.Scan(&id, &blob, &dims); err != nil {
			return err
		}
		if len(blob) != dims*4 {
			return fmt.Errorf("page %s: embedding has %d bytes, want %d", id, len(blob), dims*4)
		}
		if err := fn(id, decodeEmbedding(blob)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountPages returns the total number of pages.
func (s *SQLiteStorage) CountPages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func encodeEmbedding(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeEmbedding(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
