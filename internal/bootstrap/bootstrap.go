package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/paper-evidence/internal/config"
	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
	"github.com/kirillkom/paper-evidence/internal/core/usecase"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/corpus"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/extractor/figures"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/interactionlog"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/interactionlog/csvfile"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/queue/nats"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/resilience"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/rubric/yamlfile"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/sparse"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/paper-evidence/internal/infrastructure/vector/memory"
	"github.com/kirillkom/paper-evidence/internal/observability/metrics"
)

// App is the retrieval side: one shared engine plus the use cases around it.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Engine    *usecase.Engine
	Evaluator *usecase.Evaluator
	IngestUC  *usecase.IngestCorpusUseCase
	QueryUC   *usecase.QueryUseCase
	ReportUC  *usecase.ReportUseCase

	HTTPMetrics *metrics.HTTPServerMetrics

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)
	clients := newModelClients(cfg, executor)

	embedder, err := clients.embedder()
	if err != nil {
		return nil, err
	}
	reranker, err := clients.reranker()
	if err != nil {
		return nil, err
	}
	generator, err := clients.generator()
	if err != nil {
		return nil, err
	}

	engine := usecase.NewEngine(
		sparse.NewIndexer(),
		memory.NewIndexer(),
		usecase.WithEmbedder(embedder),
		usecase.WithReranker(reranker),
		usecase.WithLogger(logger),
	)

	rubrics, err := loadRubrics(ctx, cfg)
	if err != nil {
		return nil, err
	}
	evaluator := usecase.NewEvaluator(rubrics, cfg.EvalAssumedRelevant)

	storage, err := localfs.New(cfg.PDFDir)
	if err != nil {
		return nil, fmt.Errorf("init document storage: %w", err)
	}
	var fetcher ports.CorpusFetcher
	if cfg.DownloadDefaultPapers {
		fetcher = corpus.NewFetcher(storage, corpus.DefaultPapers(), time.Duration(cfg.DownloadTimeoutSeconds)*time.Second, executor, logger)
	}
	pageSources := []ports.PageSource{
		pdf.NewSource(storage, logger),
		plaintext.NewSource(storage),
	}

	sinks := interactionlog.NewFanOut()
	if cfg.InteractionLogPath != "" {
		csvLog, err := csvfile.New(cfg.InteractionLogPath)
		if err != nil {
			return nil, fmt.Errorf("init interaction csv log: %w", err)
		}
		sinks.Add("csv", csvLog)
	}
	if cfg.InteractionQueueEnable {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init interaction queue: %w", err)
		}
		sinks.Add("nats", queue)
		app.closeFns = append(app.closeFns, queue.Close)
	}

	app.HTTPMetrics = metrics.NewHTTPServerMetrics("api")
	app.Engine = engine
	app.Evaluator = evaluator
	app.IngestUC = usecase.NewIngestCorpusUseCase(
		fetcher,
		pageSources,
		figures.NewSource(cfg.ImageDir),
		engine,
		chunkerFactory(cfg),
		storage,
		logger,
	)
	app.QueryUC = usecase.NewQueryUseCase(engine, generator, evaluator, sinks, app.HTTPMetrics, logger)
	app.ReportUC = usecase.NewReportUseCase(engine, evaluator)
	return app, nil
}

// Ingest runs one corpus ingestion and records it in the API metrics.
func (a *App) Ingest(ctx context.Context) (domain.CorpusStats, error) {
	start := time.Now()
	stats, err := a.IngestUC.IngestCorpus(ctx)
	a.HTTPMetrics.RecordIngest(stats, time.Since(start), err)
	return stats, err
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
}

func loadRubrics(ctx context.Context, cfg config.Config) ([]domain.Rubric, error) {
	if cfg.RubricsPath == "" {
		return nil, nil
	}
	rubrics, err := yamlfile.NewLoader(cfg.RubricsPath).LoadRubrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rubrics: %w", err)
	}
	return rubrics, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		Retry: resilience.RetryPolicy{
			MaxAttempts:    cfg.ResilienceMaxAttempts,
			InitialBackoff: time.Duration(cfg.ResilienceInitialBackoffMS) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.ResilienceMaxBackoffMS) * time.Millisecond,
			Multiplier:     2,
		},
		Breaker: resilience.BreakerPolicy{
			Enabled:          cfg.BreakerEnabled,
			MinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
			FailureRatio:     cfg.BreakerFailureRatio,
			OpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
			HalfOpenMaxCalls: 1,
		},
	}
}
