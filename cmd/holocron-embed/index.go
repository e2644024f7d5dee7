package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/pagesync"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <path>...",
		Short: "Add files to the page index",
		Long: `Add files to the page index. Directories are walked and files with a
configured extension are indexed; files named directly are always indexed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), opts, args, func(format string, a ...interface{}) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			})
		},
	}
}

func runIndex(ctx context.Context, opts *rootOptions, paths []string, printf func(string, ...interface{})) error {
	cfg, _, logger, err := opts.load(false)
	if err != nil {
		return err
	}
	defer logger.Sync()
	cfg.Metrics.Enabled = new(bool)

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close(context.Background())

	syncer := pagesync.New(components.Engine, nil, cfg.Index.Extensions, pagesync.WithLogger(logger))
	indexed := 0
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || (path != root && !syncer.Matches(path)) {
				return nil
			}
			res, err := syncer.IndexFile(ctx, path)
			if err != nil {
				logger.Warn("failed to index file", zap.String("path", path), zap.Error(err))
				return ctx.Err()
			}
			if res.Indexed {
				indexed++
				printf("indexed %s (%s)\n", path, res.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	printf("%d files indexed\n", indexed)
	return nil
}
