package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holocron/embedder/internal/cli"
	"github.com/holocron/embedder/internal/lazymodel"
)

func newEmbedCmd(opts *rootOptions) *cobra.Command {
	var serverURL, output string
	cmd := &cobra.Command{
		Use:   "embed [flags] <text>",
		Short: "Print the embedding of a text",
		Long: `Print the embedding of a text. Multiple arguments are joined with spaces.

Without --server the model is loaded in this process, which downloads it on
first use.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")

			var vec []float32
			if serverURL != "" {
				vec, err = cli.NewClient(serverURL).Embed(cmd.Context(), text)
			} else {
				vec, err = embedLocal(cmd.Context(), opts, text)
			}
			if err != nil {
				return err
			}
			return cli.WriteEmbedding(cmd.OutOrStdout(), vec, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "use a running server at this URL instead of loading the model")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func embedLocal(ctx context.Context, opts *rootOptions, text string) ([]float32, error) {
	cfg, _, logger, err := opts.load(false)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	svc, err := newEmbeddingService(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	defer svc.Close(context.Background())

	vec, err := svc.GetEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s", lazymodel.Message(err))
	}
	return vec, nil
}
