package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/paper-evidence/internal/adapters/mcp"
	"github.com/kirillkom/paper-evidence/internal/bootstrap"
	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries MCP frames.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if _, err := app.Ingest(ctx); err != nil {
		logger.Error("initial_ingest_failed", "error", err)
	}

	tools := mcpadapter.NewTools(app.Engine, app.Evaluator, cfg.RetrieveDefaults())
	s := mcpadapter.NewServer("paper-evidence", version, tools)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_error", "error", err)
		os.Exit(1)
	}
}
