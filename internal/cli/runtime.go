// Package cli holds the ragctl commands. Each command gets its collaborators
// from a Loader so tests can run them without a corpus on disk.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-evidence/internal/bootstrap"
	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/core/usecase"
)

type Runtime struct {
	Queries    ports.QueryService
	Retriever  ports.EvidenceRetriever
	Evaluator  ports.EvidenceEvaluator
	Reports    *usecase.ReportUseCase
	Defaults   domain.RetrieveRequest
	ReportPath string
}

// Loader builds a ready (ingested) runtime; the returned func releases it.
type Loader func(ctx context.Context) (*Runtime, func(), error)

// BootstrapLoader wires the real application and ingests the corpus once.
func BootstrapLoader(cfg config.Config, newApp func(context.Context, config.Config) (*bootstrap.App, error)) Loader {
	return func(ctx context.Context) (*Runtime, func(), error) {
		app, err := newApp(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		if _, err := app.Ingest(ctx); err != nil {
			app.Close()
			return nil, nil, fmt.Errorf("ingest corpus: %w", err)
		}
		return &Runtime{
			Queries:    app.QueryUC,
			Retriever:  app.Engine,
			Evaluator:  app.Evaluator,
			Reports:    app.ReportUC,
			Defaults:   cfg.RetrieveDefaults(),
			ReportPath: cfg.ReportPath,
		}, app.Close, nil
	}
}

type retrievalFlags struct {
	method       string
	alpha        float64
	topKText     int
	topKImages   int
	topKEvidence int
}

func (f *retrievalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.method, "method", "", "retrieval method: sparse, dense, hybrid or rerank")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0.5, "text weight in cross-modal fusion")
	cmd.Flags().IntVar(&f.topKText, "top-k-text", 5, "text candidates kept before fusion")
	cmd.Flags().IntVar(&f.topKImages, "top-k-images", 3, "image candidates kept before fusion")
	cmd.Flags().IntVar(&f.topKEvidence, "top-k-evidence", 6, "fused evidence items returned")
}

// apply overrides only the flags the user actually set.
func (f *retrievalFlags) apply(cmd *cobra.Command, base domain.RetrieveRequest) domain.RetrieveRequest {
	out := base
	flags := cmd.Flags()
	if flags.Changed("method") {
		out.Method = domain.Method(f.method)
	}
	if flags.Changed("alpha") {
		out.Alpha = f.alpha
	}
	if flags.Changed("top-k-text") {
		out.TopKText = f.topKText
	}
	if flags.Changed("top-k-images") {
		out.TopKImages = f.topKImages
	}
	if flags.Changed("top-k-evidence") {
		out.TopKEvidence = f.topKEvidence
	}
	return out
}

func formatMetric(v float64) string {
	if v == domain.NotEvaluable {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
