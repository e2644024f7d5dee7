package pagesync

import (
	"path/filepath"

	"github.com/google/uuid"
)

// PageID returns the page ID used for the file at path. It is a name-based
// UUID of the cleaned absolute path, so the same file always maps to the same
// page and a re-index replaces it.
func PageID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(filepath.Clean(path)))).String()
}
