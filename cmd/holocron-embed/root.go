package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/config"
	"github.com/holocron/embedder/pkg/utils"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "holocron-embed",
		Short: "Local text embedding service with a lazily loaded model",
		Long: `holocron-embed computes text embeddings with a model that is downloaded and
loaded on the first request, then reused for every later one.

It can run as an HTTP server that also keeps a small semantic page index,
or embed a single text from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newEmbedCmd(opts),
		newIndexCmd(opts),
		newSearchCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the config and builds a logger. Server logs go to stdout in the
// production encoding; one-shot commands log warnings to stderr only.
func (o *rootOptions) load(server bool) (*config.Config, string, *zap.Logger, error) {
	cfg, path, err := loadConfig(o.configPath)
	if err != nil {
		return nil, "", nil, err
	}
	debug := cfg.Debug || o.debug
	var logger *zap.Logger
	if server {
		logger, err = utils.NewLogger(debug)
	} else {
		logger, err = utils.NewCLILogger(debug)
	}
	if err != nil {
		return nil, "", nil, err
	}
	cfg.Debug = debug
	return cfg, path, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "holocron-embed %s\n", version)
		},
	}
}
