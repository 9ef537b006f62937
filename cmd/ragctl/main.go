package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-evidence/internal/bootstrap"
	"github.com/kirillkom/paper-evidence/internal/cli"
	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "ragctl", cfg.LogLevel)

	load := cli.BootstrapLoader(cfg, func(ctx context.Context, cfg config.Config) (*bootstrap.App, error) {
		return bootstrap.New(ctx, cfg, logger)
	})

	rootCmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Query and evaluate the paper evidence retriever from the command line",
		Long: `ragctl ingests the local corpus and runs retrieval without the HTTP API.

Environment variables (also read from .env):
  PDF_DIR, IMG_DIR       corpus locations
  EMBEDDER, RERANKER     dense and rerank backends (ollama|openai|hashing|none, tei|lexical|none)
  REPORT_PATH            default workbook path for "ragctl report"
  POSTGRES_DSN           interaction archive read by "ragctl history"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.QueryCmd(load))
	rootCmd.AddCommand(cli.EvaluateCmd(load))
	rootCmd.AddCommand(cli.ReportCmd(load))
	rootCmd.AddCommand(cli.HistoryCmd(func(ctx context.Context) (cli.InteractionHistory, func(), error) {
		return bootstrap.OpenInteractionHistory(ctx, cfg)
	}))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
