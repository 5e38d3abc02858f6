package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/datasource/atlas"
)

// NewTradeCmd creates the trade subcommand, a thin front for the atlas
// trade-flow API.
func NewTradeCmd(opts *RootOptions) *cobra.Command {
	var q atlas.Query

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Query bilateral trade flows from the atlas API",
		Long: "Queries the Observatory of Economic Complexity atlas for trade flows.\n" +
			"Omitted origin, destination and product act as wildcards; an omitted\n" +
			"year defaults to the most recent consolidated year.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(opts)
			if err != nil {
				return err
			}

			client := atlas.NewClient(cfg.DataSource.AtlasBaseURL, cfg.DataSource.HTTPTimeout, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			doc, err := client.Trade(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Model, "model", "hs07", "product classification model")
	f.BoolVar(&q.Export, "export", false, "query export flows instead of imports")
	f.IntVar(&q.Year, "year", 0, "data year (0 picks the latest consolidated year)")
	f.StringVar(&q.Origin, "origin", "", "origin country code")
	f.StringVar(&q.Destination, "destination", "", "destination country code")
	f.StringVar(&q.Product, "product", "", "product code")
	return cmd
}
