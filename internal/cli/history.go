package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

type InteractionHistory interface {
	Recent(ctx context.Context, limit int) ([]domain.Interaction, error)
}

// HistoryCmd lists interactions archived by the worker.
func HistoryCmd(open func(ctx context.Context) (InteractionHistory, func(), error)) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent archived queries with their metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			items, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tMODE\tLATENCY\tP@5\tR@10\tQUERY")
			for _, in := range items {
				fmt.Fprintf(tw, "%s\t%s\t%.3fs\t%s\t%s\t%s\n",
					in.Timestamp.Format("2006-01-02 15:04:05"),
					in.Mode,
					in.LatencySec,
					formatMetric(in.PrecisionAt5),
					formatMetric(in.RecallAt10),
					strings.ReplaceAll(in.Query, "\n", " "),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of interactions to show")
	return cmd
}
