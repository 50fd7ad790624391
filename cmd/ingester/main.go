package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/procurewatch/tender-ingest/internal/bootstrap"
	"github.com/procurewatch/tender-ingest/internal/config"
	"github.com/procurewatch/tender-ingest/internal/core/domain"
	"github.com/procurewatch/tender-ingest/internal/observability/logging"
	"github.com/procurewatch/tender-ingest/internal/observability/metrics"
	"github.com/procurewatch/tender-ingest/internal/scheduler"
)

const runTimeout = 5 * time.Minute

func main() {
	app := &cli.App{
		Name:  "tender-ingest",
		Usage: "Ingest Transnet eTenders listings into the enrichment queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				EnvVars: []string{"TENDER_INGEST_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single ingestion pass and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(cfg.Service, cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	ingestMetrics := metrics.NewIngestMetrics(cfg.Service)

	if c.Bool("once") {
		summary := runOnce(ctx, app, ingestMetrics)
		if summary.Status == domain.RunFailed {
			return fmt.Errorf("ingestion run failed: %s", summary.Error)
		}
		return nil
	}
	return runScheduled(ctx, cfg, app, ingestMetrics, logger)
}

func runOnce(ctx context.Context, app *bootstrap.App, m *metrics.IngestMetrics) domain.RunSummary {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	started := time.Now()
	summary := app.Ingestor.Run(runCtx)
	m.ObserveRun(summary, time.Since(started))
	return summary
}

func runScheduled(ctx context.Context, cfg config.Config, app *bootstrap.App, m *metrics.IngestMetrics, logger *slog.Logger) error {
	sched, err := scheduler.New(cfg.Schedule.Timezone, logger)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := sched.Schedule(cfg.Schedule.Cron, func() {
		runOnce(ctx, app, m)
	}); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:        ":" + cfg.Metrics.Port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("metrics_listening", "port", cfg.Metrics.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	sched.Start()
	logger.Info("ingester_scheduled", "cron", cfg.Schedule.Cron, "timezone", cfg.Schedule.Timezone)

	<-ctx.Done()

	// Let an in-flight run finish before tearing the process down.
	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics_shutdown_failed", "error", err)
	}
	logger.Info("ingester_stopped")
	return nil
}
