// Package models defines the data carried between the page index, the search
// service and the HTTP API.
package models

import "time"

// Page is an indexed page. Content is kept as submitted; the embedding is
// computed from its plain text.
type Page struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PageInput is the input for indexing a page. A missing ID is generated.
type PageInput struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// IndexResult reports what IndexPage did with a page.
type IndexResult struct {
	ID string `json:"id"`
	// Indexed is false when the page had no text to embed.
	Indexed bool `json:"indexed"`
}
