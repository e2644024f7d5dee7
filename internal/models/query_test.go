package models

import "testing"

func TestSearchQuery_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		in        SearchQuery
		wantOK    bool
		wantQuery string
		wantLimit int
	}{
		{"blank", SearchQuery{Query: "   "}, false, "", DefaultSearchLimit},
		{"default limit", SearchQuery{Query: " hello "}, true, "hello", DefaultSearchLimit},
		{"explicit limit", SearchQuery{Query: "x", Limit: 12}, true, "x", 12},
		{"capped limit", SearchQuery{Query: "x", Limit: 1000}, true, "x", MaxSearchLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.in
			if got := q.Normalize(); got != tt.wantOK {
				t.Errorf("Normalize() = %v, want %v", got, tt.wantOK)
			}
			if q.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", q.Query, tt.wantQuery)
			}
			if q.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", q.Limit, tt.wantLimit)
			}
		})
	}
}
