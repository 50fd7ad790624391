package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/procurewatch/tender-ingest/internal/config"
	"github.com/procurewatch/tender-ingest/internal/core/ports"
	"github.com/procurewatch/tender-ingest/internal/core/usecase"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/batching"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/queue/nats"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/resilience"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/source/transnet"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/spool"
)

type App struct {
	Config config.Config

	Ingestor ports.TenderIngestor

	closeFn func()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	source := transnet.NewWithOptions(transnet.Options{
		Endpoint:  cfg.Source.Endpoint,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.Source.Timeout(),
	})

	queueOpts := nats.Options{
		PublishTimeout: cfg.Queue.PublishTimeout(),
		Stream:         cfg.Queue.Stream,
		Logger:         logger,
	}
	if cfg.Dispatch.RejectedAction == config.RejectedActionRetry {
		queueOpts.ResilienceExecutor = resilience.New(resilience.DefaultConfig(), logger)
	}
	queue, err := nats.NewWithOptions(cfg.Queue.URL, cfg.Queue.Subject, queueOpts)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	dispatchOpts := usecase.DispatchOptions{
		RatePerSecond: cfg.Dispatch.RatePerSecond,
		Logger:        logger,
	}
	if cfg.Dispatch.RejectedAction == config.RejectedActionSpool {
		sink, err := spool.New(cfg.Dispatch.SpoolDir)
		if err != nil {
			queue.Close()
			return nil, fmt.Errorf("init reject spool: %w", err)
		}
		dispatchOpts.RejectSink = sink
	}

	normalizer := usecase.NewNormalizeTendersUseCase(logger)
	dispatcher := usecase.NewDispatchTendersUseCase(queue, batching.NewSplitter(), dispatchOpts)
	ingestor := usecase.NewIngestTendersUseCase(source, normalizer, dispatcher, logger)

	return &App{
		Config:   cfg,
		Ingestor: ingestor,

		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
