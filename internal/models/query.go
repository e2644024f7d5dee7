package models

import "strings"

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 100
)

// SearchQuery is a semantic search request.
type SearchQuery struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
}

// Normalize trims the query and clamps Limit to [1, MaxSearchLimit],
// defaulting to DefaultSearchLimit. It reports whether there is anything to search for.
func (q *SearchQuery) Normalize() bool {
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	if q.Limit > MaxSearchLimit {
		q.Limit = MaxSearchLimit
	}
	return q.Query != ""
}
