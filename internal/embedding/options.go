package embedding

// ONNXOptions configures NewONNXModel.
type ONNXOptions struct {
	ModelPath   string
	VocabPath   string
	LibraryPath string
	Variant     Variant
	// MaxTokens caps the sequence length; it never exceeds the variant's limit.
	MaxTokens      int
	Workers        int
	IntraOpThreads int
}

func (o ONNXOptions) maxTokens() int {
	if o.MaxTokens <= 0 || o.MaxTokens > o.Variant.MaxTokens {
		return o.Variant.MaxTokens
	}
	return o.MaxTokens
}
