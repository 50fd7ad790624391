package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
	"github.com/procurewatch/tender-ingest/internal/core/ports"
)

// IngestTendersUseCase runs the linear pipeline: fetch, normalize, batch and
// dispatch, then summarize. It is invoked once per trigger and keeps no state
// between runs.
type IngestTendersUseCase struct {
	source     ports.TenderSource
	normalizer *NormalizeTendersUseCase
	dispatcher *DispatchTendersUseCase
	logger     *slog.Logger
}

func NewIngestTendersUseCase(
	source ports.TenderSource,
	normalizer *NormalizeTendersUseCase,
	dispatcher *DispatchTendersUseCase,
	logger *slog.Logger,
) *IngestTendersUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestTendersUseCase{
		source:     source,
		normalizer: normalizer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run executes one ingestion pass. Only a fetch failure fails the run; item
// and batch level problems degrade to log lines and counters.
func (uc *IngestTendersUseCase) Run(ctx context.Context) domain.RunSummary {
	runID := uuid.NewString()
	started := time.Now()
	logger := uc.logger.With("run_id", runID)

	logger.Info("run_started", "source", domain.SourceTransnet)

	items, err := uc.source.FetchAdvertised(ctx)
	if err != nil {
		logger.Error("fetch_failed", "error", err)
		return domain.RunSummary{
			RunID:  runID,
			Status: domain.RunFailed,
			Error:  err.Error(),
		}
	}
	logger.Info("tenders_fetched", "count", len(items))

	norm := uc.normalizer.Normalize(items)
	sent := uc.dispatcher.Dispatch(ctx, norm.Records)

	summary := domain.RunSummary{
		RunID:    runID,
		Status:   domain.RunSucceeded,
		Message:  fmt.Sprintf("tender data processed: %d messages sent to queue", sent),
		Fetched:  len(items),
		Accepted: len(norm.Records),
		Skipped:  norm.Skipped,
		Sent:     sent,
	}
	logger.Info("run_complete",
		"status", summary.Status,
		"fetched", summary.Fetched,
		"accepted", summary.Accepted,
		"skipped", summary.Skipped,
		"sent", summary.Sent,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return summary
}
