// Package cli holds output formatting and the HTTP client used by the
// holocron-embed commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/holocron/embedder/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteEmbedding writes one vector. Text output is the components separated
// by spaces on one line, in shortest round-trip form.
func WriteEmbedding(w io.Writer, vec []float32, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, models.EmbeddingResponse{Embedding: vec, Dimensions: len(vec)})
	}
	var b strings.Builder
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", result.Rank, result.Score)
		fmt.Fprintf(w, "ID: %s\n", result.ID)
		if result.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", result.Title)
		}
		if result.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", result.Snippet)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteStatus writes model and index status.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Model:       %s (%s)\n", st.Model, st.Backend)
	fmt.Fprintf(w, "State:       %s\n", st.State)
	if st.Dimensions > 0 {
		fmt.Fprintf(w, "Dimensions:  %d\n", st.Dimensions)
	}
	fmt.Fprintf(w, "Attempts:    %d\n", st.Attempts)
	fmt.Fprintf(w, "Concurrency: %d\n", st.MaxConcurrent)
	fmt.Fprintf(w, "Pages:       %d\n", st.Pages)
	fmt.Fprintf(w, "Model cache: %s\n", FormatBytes(st.ModelCacheBytes))
	fmt.Fprintf(w, "Index size:  %s\n", FormatBytes(st.IndexBytes))
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
