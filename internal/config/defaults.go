package config

// Embedding backends.
const (
	BackendONNX = "onnx"
	BackendHash = "hash"
)

// Model store sources.
const (
	SourceHTTP    = "http"
	SourceS3      = "s3"
	SourceOffline = "offline"
)

// DefaultModel is the variant constructed when none is configured.
const DefaultModel = "BAAI/bge-small-en-v1.5"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = BackendONNX
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultModel
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 512
	}
	if cfg.Embedding.MaxConcurrentInference == 0 {
		cfg.Embedding.MaxConcurrentInference = 1
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.ModelStore.Source == "" {
		cfg.ModelStore.Source = SourceHTTP
	}
	if cfg.ModelStore.CacheDir == "" {
		cfg.ModelStore.CacheDir = ".cache/holocron/models"
	}
	if cfg.ModelStore.BaseURL == "" {
		cfg.ModelStore.BaseURL = "https://huggingface.co"
	}
	if cfg.ModelStore.ShowDownloadProgress == nil {
		t := true
		cfg.ModelStore.ShowDownloadProgress = &t
	}
	if cfg.Index.DatabasePath == "" {
		cfg.Index.DatabasePath = ".local/share/holocron/pages.db"
	}
	if len(cfg.Index.Extensions) == 0 {
		cfg.Index.Extensions = []string{".txt", ".md", ".pdf", ".xlsx"}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "holocron-embed"
	}
	if cfg.Tracing.Environment == "" {
		cfg.Tracing.Environment = "dev"
	}
}
