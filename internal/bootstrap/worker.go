package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/usecase"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/queue/nats"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
	"github.com/kirillkom/paper-evidence/internal/observability/metrics"
)

// Worker archives interaction events from the queue into Postgres.
type Worker struct {
	Config config.Config

	Queue     *nats.Queue
	ProcessUC *usecase.ProcessInteractionUseCase
	Metrics   *metrics.ArchiveMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInteractionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilienceConfig(cfg), logger),
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init interaction queue: %w", err)
	}

	return &Worker{
		Config:    cfg,
		Queue:     queue,
		ProcessUC: usecase.NewProcessInteractionUseCase(repo),
		Metrics:   metrics.NewArchiveMetrics("worker"),
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// OpenInteractionHistory gives read access to archived interactions without
// connecting to the queue.
func OpenInteractionHistory(ctx context.Context, cfg config.Config) (*usecase.ProcessInteractionUseCase, func(), error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInteractionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return usecase.NewProcessInteractionUseCase(repo), func() { _ = db.Close() }, nil
}
