//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/holocron/embedder/pkg/utils"
)

var ortInitMu sync.Mutex

// ONNXModel uses ONNX Runtime to produce embeddings. It requires CGO and the onnxruntime shared library.
// It holds one session per worker; each worker owns pre-allocated tensors, so a worker runs one
// inference at a time and the number of workers bounds inference parallelism.
type ONNXModel struct {
	variant   Variant
	maxTokens int
	tokenizer Tokenizer
	workers   chan *onnxWorker
	all       []*onnxWorker
	closeOnce sync.Once
}

type onnxWorker struct {
	session *ort.AdvancedSession
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
}

// NewONNXModel loads the model file into opts.Workers sessions. The runtime environment is
// initialized on first use and stays initialized for the life of the process.
func NewONNXModel(opts ONNXOptions) (*ONNXModel, error) {
	if err := initializeRuntime(opts.LibraryPath); err != nil {
		return nil, err
	}
	tokenizer, err := LoadWordPieceTokenizer(opts.VocabPath)
	if err != nil {
		return nil, err
	}
	maxTokens := opts.maxTokens()
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	m := &ONNXModel{
		variant:   opts.Variant,
		maxTokens: maxTokens,
		tokenizer: tokenizer,
		workers:   make(chan *onnxWorker, workers),
	}
	for i := 0; i < workers; i++ {
		w, err := newONNXWorker(opts, maxTokens)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		m.all = append(m.all, w)
		m.workers <- w
	}
	return m, nil
}

func initializeRuntime(libraryPath string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	return nil
}

func newONNXWorker(opts ONNXOptions, maxTokens int) (*onnxWorker, error) {
	w := &onnxWorker{}
	inputShape := ort.NewShape(1, int64(maxTokens))
	var err error
	if w.inputIDsTensor, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if w.attentionMaskTensor, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err != nil {
		w.destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if w.tokenTypeIDsTensor, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err != nil {
		w.destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	outputShape := ort.NewShape(1, int64(maxTokens), int64(opts.Variant.Dimensions))
	if w.outputTensor, err = ort.NewTensor(outputShape, make([]float32, maxTokens*opts.Variant.Dimensions)); err != nil {
		w.destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	var sessionOpts *ort.SessionOptions
	if opts.IntraOpThreads > 0 {
		sessionOpts, err = ort.NewSessionOptions()
		if err != nil {
			w.destroy()
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}
		defer sessionOpts.Destroy()
		if err := sessionOpts.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			w.destroy()
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	inputs := []ort.ArbitraryTensor{w.inputIDsTensor, w.attentionMaskTensor, w.tokenTypeIDsTensor}
	outputs := []ort.ArbitraryTensor{w.outputTensor}
	w.session, err = ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{opts.Variant.OutputName},
		inputs,
		outputs,
		sessionOpts,
	)
	if err != nil {
		w.destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return w, nil
}

// Embed runs one inference per text on a free worker.
func (m *ONNXModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var w *onnxWorker
	select {
	case w = <-m.workers:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if w == nil {
		return nil, errors.New("onnx model is closed")
	}
	defer func() { m.workers <- w }()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := m.run(w, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (m *ONNXModel) run(w *onnxWorker, text string) ([]float32, error) {
	inputIDs, attentionMask, tokenTypeIDs := m.tokenizer.Tokenize(text, m.maxTokens)

	copy(w.inputIDsTensor.GetData(), inputIDs)
	copy(w.attentionMaskTensor.GetData(), attentionMask)
	copy(w.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := w.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	embedding := Pool(w.outputTensor.GetData(), attentionMask, m.variant.Dimensions, m.variant.Pooling)
	if m.variant.Normalize {
		utils.NormalizeL2(embedding)
	}
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (m *ONNXModel) Dimensions() int {
	return m.variant.Dimensions
}

// Close destroys every session and tensor. Embed calls made after Close fail.
func (m *ONNXModel) Close() error {
	var err error
	m.closeOnce.Do(func() {
		for range m.all {
			<-m.workers
		}
		for _, w := range m.all {
			if werr := w.destroy(); werr != nil && err == nil {
				err = werr
			}
		}
		close(m.workers)
	})
	return err
}

func (w *onnxWorker) destroy() error {
	var err error
	if w.session != nil {
		err = w.session.Destroy()
		w.session = nil
	}
	if w.inputIDsTensor != nil {
		_ = w.inputIDsTensor.Destroy()
		w.inputIDsTensor = nil
	}
	if w.attentionMaskTensor != nil {
		_ = w.attentionMaskTensor.Destroy()
		w.attentionMaskTensor = nil
	}
	if w.tokenTypeIDsTensor != nil {
		_ = w.tokenTypeIDsTensor.Destroy()
		w.tokenTypeIDsTensor = nil
	}
	if w.outputTensor != nil {
		_ = w.outputTensor.Destroy()
		w.outputTensor = nil
	}
	return err
}
