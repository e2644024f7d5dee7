// Package main is the holocron-embed entry point.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holocron/embedder/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/holocron/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists (for development), and a missing default
// file means built-in defaults. Returns the config and the path actually loaded,
// or "" when defaults were used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
