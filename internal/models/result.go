package models

// SearchResult is a single page hit.
type SearchResult struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}

// EmbeddingRequest asks for the embedding of one text.
type EmbeddingRequest struct {
	Text string `json:"text"`
}

// EmbeddingResponse carries one embedding.
type EmbeddingResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// Status describes the embedding model and the page index.
type Status struct {
	Model           string `json:"model"`
	Backend         string `json:"backend"`
	State           string `json:"state"`
	Dimensions      int    `json:"dimensions"`
	Attempts        int64  `json:"construction_attempts"`
	MaxConcurrent   int    `json:"max_concurrent_inference"`
	Pages           int64  `json:"pages"`
	ModelCacheBytes int64  `json:"model_cache_bytes"`
	IndexBytes      int64  `json:"index_bytes"`
}
