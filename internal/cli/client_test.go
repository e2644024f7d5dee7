package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/holocron/embedder/internal/models"
)

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/embedding":
			var req models.EmbeddingRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Text == "fail" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"model construction failed: offline"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(models.EmbeddingResponse{Embedding: []float32{1, 2, 3}, Dimensions: 3})
		case "/api/v1/status":
			_ = json.NewEncoder(w).Encode(models.Status{State: "absent", Model: "m"})
		case "/api/v1/search":
			_ = json.NewEncoder(w).Encode(models.SearchResponse{Total: 1, Results: []*models.SearchResult{{ID: "p"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	vec, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 dims, got %d", len(vec))
	}

	_, err = c.Embed(ctx, "fail")
	if err == nil || !strings.Contains(err.Error(), "model construction failed: offline") {
		t.Errorf("expected server error message, got %v", err)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != "absent" {
		t.Errorf("state = %q", st.State)
	}

	resp, err := c.Search(ctx, &models.SearchQuery{Query: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d", resp.Total)
	}
}
