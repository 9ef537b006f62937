package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

// EvaluateCmd scores one question, or every rubric question when none is given.
func EvaluateCmd(load Loader) *cobra.Command {
	var flags retrievalFlags

	cmd := &cobra.Command{
		Use:   "evaluate [question]",
		Short: "Score retrieved evidence against the rubric table",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, release, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			base := flags.apply(cmd, rt.Defaults)
			questions := []string{strings.Join(args, " ")}
			if len(args) == 0 {
				questions = questions[:0]
				for _, r := range rt.Evaluator.Rubrics() {
					questions = append(questions, r.Question)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUBRIC\tMETHOD\tP@5\tR@10\tQUESTION")
			for _, q := range questions {
				req := base
				req.Query = q
				evidence, err := rt.Retriever.Retrieve(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("retrieve %q: %w", q, err)
				}
				eval := rt.Evaluator.Evaluate(q, evidence)
				rubric := eval.RubricID
				if rubric == "" {
					rubric = "-"
				}
				method, _ := domain.ParseMethod(string(req.Method))
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rubric, method, formatMetric(eval.PrecisionAt5), formatMetric(eval.RecallAt10), q)
			}
			return tw.Flush()
		},
	}

	flags.register(cmd)
	return cmd
}
