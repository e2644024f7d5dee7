package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holocron/embedder/internal/cli"
	"github.com/holocron/embedder/internal/models"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var serverURL, output string
	var limit int
	var minScore float64
	cmd := &cobra.Command{
		Use:   "search [flags] <query>",
		Short: "Search indexed pages by meaning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			query := &models.SearchQuery{Query: strings.Join(args, " "), Limit: limit, MinScore: minScore}

			var resp *models.SearchResponse
			if serverURL != "" {
				resp, err = cli.NewClient(serverURL).Search(cmd.Context(), query)
			} else {
				resp, err = searchLocal(cmd.Context(), opts, query)
			}
			if err != nil {
				return err
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "use a running server at this URL")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().IntVarP(&limit, "limit", "n", models.DefaultSearchLimit, "maximum number of results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "drop results scoring below this")
	return cmd
}

func searchLocal(ctx context.Context, opts *rootOptions, query *models.SearchQuery) (*models.SearchResponse, error) {
	cfg, _, logger, err := opts.load(false)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	cfg.Metrics.Enabled = new(bool)

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close(context.Background())
	return components.Engine.Search(ctx, query)
}
