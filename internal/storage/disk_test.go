package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "f1.txt")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "models--org--model", "onnx")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "model.onnx"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(filepath.Dir(sub), "vocab.txt"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{f1}, 5},
		{"nested dir", []string{filepath.Dir(sub)}, 3},
		{"file and dir", []string{f1, filepath.Dir(sub)}, 8},
		{"missing skipped", []string{f1, filepath.Join(dir, "nonexistent")}, 5},
		{"empty skipped", []string{"", f1}, 5},
	}
	for _, tt := range tests {
		got, err := DiskUsageBytes(tt.paths...)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %d bytes, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDatabaseFiles(t *testing.T) {
	files := DatabaseFiles("/data/pages.db")
	want := []string{"/data/pages.db", "/data/pages.db-wal", "/data/pages.db-shm"}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}
