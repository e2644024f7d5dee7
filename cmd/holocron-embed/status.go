package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/holocron/embedder/internal/cli"
	"github.com/holocron/embedder/internal/config"
	"github.com/holocron/embedder/internal/lazymodel"
	"github.com/holocron/embedder/internal/models"
	"github.com/holocron/embedder/internal/storage"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var serverURL, output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show model and index status",
		Long: `Show model and index status. With --server the running server reports its
live model state; without it the model is reported as not loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			var st *models.Status
			if serverURL != "" {
				st, err = cli.NewClient(serverURL).Status(cmd.Context())
			} else {
				st, err = localStatus(cmd.Context(), opts)
			}
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), st, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "query a running server at this URL")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func localStatus(ctx context.Context, opts *rootOptions) (*models.Status, error) {
	cfg, _, logger, err := opts.load(false)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	return statusFromDisk(ctx, cfg)
}

func statusFromDisk(ctx context.Context, cfg *config.Config) (*models.Status, error) {
	st := &models.Status{
		Model:         cfg.Embedding.Model,
		Backend:       cfg.Embedding.Backend,
		State:         lazymodel.StateAbsent.String(),
		MaxConcurrent: cfg.Embedding.MaxConcurrentInference,
	}
	store, err := storage.NewSQLiteStorage(cfg.Index.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if st.Pages, err = store.CountPages(ctx); err != nil {
		return nil, err
	}
	st.ModelCacheBytes, _ = storage.DiskUsageBytes(cfg.ModelStore.CacheDir)
	st.IndexBytes, _ = storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Index.DatabasePath)...)
	return st, nil
}
