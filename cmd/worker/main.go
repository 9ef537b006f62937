package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/paper-evidence/internal/bootstrap"
	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/observability/logging"
)

const service = "worker"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", worker.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = worker.Queue.Subscribe(ctx, func(handlerCtx context.Context, interaction domain.Interaction) error {
		done := worker.Metrics.Track(interaction, time.Now())

		processCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		err := worker.ProcessUC.Process(processCtx, interaction)
		done(err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
