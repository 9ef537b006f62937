package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func QueryCmd(load Loader) *cobra.Command {
	var (
		flags  retrievalFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Retrieve evidence, answer and evaluate one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			req := flags.apply(cmd, rt.Defaults)
			req.Query = strings.Join(args, " ")

			result, err := rt.Queries.Ask(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "%s\n\n", result.Answer)
			fmt.Fprintf(out, "Evidence (%s, %s):\n", result.Method, formatLatency(result.Latency))
			for i, item := range result.Evidence {
				fmt.Fprintf(out, "%2d. [%s] %-40s %.3f\n", i+1, item.Modality, item.ID, item.FusedScore)
			}
			fmt.Fprintf(out, "\nP@5=%s R@10=%s\n", formatMetric(result.Evaluation.PrecisionAt5), formatMetric(result.Evaluation.RecallAt10))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
