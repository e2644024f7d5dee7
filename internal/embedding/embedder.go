// Package embedding provides the text embedding models behind the shared model slot:
// an ONNX Runtime model, a deterministic hash model, and the files they need.
package embedding

import "context"

// Model produces vector embeddings for text. Implementations return one vector
// per input text, each of length Dimensions().
type Model interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// FileStore makes model files available on local disk and returns the
// directory holding them.
type FileStore interface {
	Ensure(ctx context.Context, repo string, files []string) (string, error)
}
