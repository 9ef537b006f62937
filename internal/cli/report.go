package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-evidence/internal/infrastructure/report/xlsx"
)

func ReportCmd(load Loader) *cobra.Command {
	var (
		flags retrievalFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run every rubric question under every method and write an xlsx comparison",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			path := out
			if path == "" {
				path = rt.ReportPath
			}
			rows, err := rt.Reports.Write(cmd.Context(), flags.apply(cmd, rt.Defaults), xlsx.NewWriter(path))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rows), path)
			for _, s := range xlsx.Summarize(rows) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s P@5=%.2f R@10=%.2f latency=%.3fs (n=%d)\n",
					s.Method, s.MeanPrecisionAt5, s.MeanRecallAt10, s.MeanLatencySec, s.Queries)
			}
			return nil
		},
	}

	flags.register(cmd)
	// every method is run regardless
	_ = cmd.Flags().MarkHidden("method")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook path (default REPORT_PATH)")
	return cmd
}
