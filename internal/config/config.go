// Package config provides configuration loading and structs for holocron-embed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	ModelStore ModelStoreConfig `yaml:"model_store"`
	Index      IndexConfig      `yaml:"index"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EmbeddingConfig selects the model variant and how access to it is shared.
type EmbeddingConfig struct {
	// Backend is "onnx" (real model) or "hash" (deterministic, no weights).
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// MaxConcurrentInference is the number of inferences allowed to run at
	// once after the model is ready. 1 serializes every request.
	MaxConcurrentInference int `yaml:"max_concurrent_inference"`
	// CacheSize bounds the in-process result cache; negative disables it.
	CacheSize       int    `yaml:"cache_size"`
	WarmUp          bool   `yaml:"warm_up"`
	ONNXLibraryPath string `yaml:"onnx_library_path"`
	IntraOpThreads  int    `yaml:"intra_op_threads"`
}

// ModelStoreConfig controls where model files are fetched from and cached.
type ModelStoreConfig struct {
	Source               string   `yaml:"source"`
	CacheDir             string   `yaml:"cache_dir"`
	BaseURL              string   `yaml:"base_url"`
	ShowDownloadProgress *bool    `yaml:"show_download_progress"`
	S3                   S3Config `yaml:"s3"`
}

// ShowDownloadProgressOrDefault returns whether to log download progress; defaults to true when unset.
func (m *ModelStoreConfig) ShowDownloadProgressOrDefault() bool {
	if m.ShowDownloadProgress != nil {
		return *m.ShowDownloadProgress
	}
	return true
}

// S3Config holds settings for an S3-compatible bucket that mirrors model files.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// IndexConfig holds the page index database location and the directories
// whose files are kept in sync with it.
type IndexConfig struct {
	DatabasePath string   `yaml:"database_path"`
	WatchDirs    []string `yaml:"watch_dirs"`
	Extensions   []string `yaml:"extensions"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault returns whether metrics are served; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.ModelStore.CacheDir = expandPath(cfg.ModelStore.CacheDir, configDir)
	cfg.Index.DatabasePath = expandPath(cfg.Index.DatabasePath, configDir)
	if cfg.Embedding.ONNXLibraryPath != "" {
		cfg.Embedding.ONNXLibraryPath = expandPath(cfg.Embedding.ONNXLibraryPath, configDir)
	}
	for i, dir := range cfg.Index.WatchDirs {
		cfg.Index.WatchDirs[i] = expandPath(dir, configDir)
	}

	return &cfg, nil
}

// Default returns a config with every default applied, for running without a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.ModelStore.CacheDir = expandPath(cfg.ModelStore.CacheDir, ".")
	cfg.Index.DatabasePath = expandPath(cfg.Index.DatabasePath, ".")
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects values that defaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.Embedding.Backend {
	case BackendONNX, BackendHash:
	default:
		return fmt.Errorf("invalid embedding.backend %q: want %q or %q", cfg.Embedding.Backend, BackendONNX, BackendHash)
	}
	switch cfg.ModelStore.Source {
	case SourceHTTP, SourceS3, SourceOffline:
	default:
		return fmt.Errorf("invalid model_store.source %q", cfg.ModelStore.Source)
	}
	if cfg.ModelStore.Source == SourceS3 && cfg.ModelStore.S3.Bucket == "" {
		return fmt.Errorf("model_store.s3.bucket is required when source is %q", SourceS3)
	}
	if cfg.Embedding.MaxConcurrentInference < 1 {
		return fmt.Errorf("embedding.max_concurrent_inference must be at least 1, got %d", cfg.Embedding.MaxConcurrentInference)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
