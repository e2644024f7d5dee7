package embedding

import (
	"fmt"
	"sort"
)

// Pooling selects how token states are reduced to one vector.
type Pooling int

const (
	// PoolingCLS takes the hidden state of the [CLS] token.
	PoolingCLS Pooling = iota
	// PoolingMean averages hidden states over attended tokens.
	PoolingMean
)

// Variant describes one supported model: where its files live and how its
// output is turned into an embedding.
type Variant struct {
	Name       string
	Repo       string
	ModelFile  string
	VocabFile  string
	OutputName string
	Dimensions int
	MaxTokens  int
	Pooling    Pooling
	Normalize  bool
}

// Files lists the repository files the variant needs on disk.
func (v Variant) Files() []string {
	return []string{v.ModelFile, v.VocabFile}
}

var variants = map[string]Variant{
	"BAAI/bge-small-en-v1.5": {
		Name:       "BAAI/bge-small-en-v1.5",
		Repo:       "Xenova/bge-small-en-v1.5",
		ModelFile:  "onnx/model.onnx",
		VocabFile:  "vocab.txt",
		OutputName: "last_hidden_state",
		Dimensions: 384,
		MaxTokens:  512,
		Pooling:    PoolingCLS,
		Normalize:  true,
	},
	"sentence-transformers/all-MiniLM-L6-v2": {
		Name:       "sentence-transformers/all-MiniLM-L6-v2",
		Repo:       "Xenova/all-MiniLM-L6-v2",
		ModelFile:  "onnx/model.onnx",
		VocabFile:  "vocab.txt",
		OutputName: "last_hidden_state",
		Dimensions: 384,
		MaxTokens:  256,
		Pooling:    PoolingMean,
		Normalize:  true,
	},
}

// LookupVariant returns the variant registered under name.
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown embedding model %q (supported: %v)", name, VariantNames())
	}
	return v, nil
}

// VariantNames returns the supported model names, sorted.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
