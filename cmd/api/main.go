package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/paper-evidence/internal/adapters/http"
	"github.com/kirillkom/paper-evidence/internal/bootstrap"
	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Serve even when the first ingest fails; retrieval answers 503 until
	// POST /v1/ingest succeeds.
	if stats, err := app.Ingest(ctx); err != nil {
		logger.Error("initial_ingest_failed", "error", err)
	} else {
		logger.Info("initial_ingest_done", "pages", stats.Pages, "text_chunks", stats.TextChunks, "images", stats.Images)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Retriever: app.Engine,
		Evaluator: app.Evaluator,
		Queries:   app.QueryUC,
		Ingestor:  app.IngestUC,
		Uploads:   app.IngestUC,
	}, app.HTTPMetrics, logger).Handler()

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Error("api_listen_failed", "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
