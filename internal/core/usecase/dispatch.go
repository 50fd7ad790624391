package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
	"github.com/procurewatch/tender-ingest/internal/core/ports"
)

type DispatchTendersUseCase struct {
	queue   ports.MessageQueue
	batcher ports.Batcher
	rejects ports.RejectSink
	limiter *rate.Limiter
	logger  *slog.Logger
}

type DispatchOptions struct {
	// RejectSink, when set, receives entries the transport rejected, for
	// manual replay. Rejected entries are always logged regardless.
	RejectSink ports.RejectSink

	// RatePerSecond paces group sends; zero or negative means unpaced.
	RatePerSecond float64

	Logger *slog.Logger
}

func NewDispatchTendersUseCase(queue ports.MessageQueue, batcher ports.Batcher, options DispatchOptions) *DispatchTendersUseCase {
	var limiter *rate.Limiter
	if options.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RatePerSecond), 1)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchTendersUseCase{
		queue:   queue,
		batcher: batcher,
		rejects: options.RejectSink,
		limiter: limiter,
		logger:  logger,
	}
}

// Dispatch batches the records and sends each group in one transport call.
// A failure affects only its own group or entry; the return value counts
// confirmed-delivered entries across all groups.
func (uc *DispatchTendersUseCase) Dispatch(ctx context.Context, records []domain.TenderRecord) int {
	payloads := make([]domain.TenderPayload, len(records))
	for i, rec := range records {
		payloads[i] = rec.Payload()
	}

	sent := 0
	for batchIndex, group := range uc.batcher.Split(payloads) {
		entries := uc.buildEntries(batchIndex, group)
		if len(entries) == 0 {
			continue
		}

		if uc.limiter != nil {
			if err := uc.limiter.Wait(ctx); err != nil {
				uc.logger.Error("dispatch_aborted", "batch", batchIndex, "error", err)
				return sent
			}
		}

		res, err := uc.queue.PublishBatch(ctx, entries)
		if err != nil {
			uc.logger.Error("batch_send_failed", "batch", batchIndex, "entries", len(entries), "error", err)
			continue
		}

		sent += len(res.Successful)
		uc.logger.Info("batch_sent", "batch", batchIndex, "successful", len(res.Successful), "failed", len(res.Failed))
		uc.handleRejected(ctx, batchIndex, entries, res.Failed)
	}

	uc.logger.Info("dispatch_complete", "sent", sent)
	return sent
}

// buildEntries renders one group as transport entries. Entry ids are unique
// within the run for result correlation; they carry no cross-run meaning.
func (uc *DispatchTendersUseCase) buildEntries(batchIndex int, group []domain.TenderPayload) []domain.BatchEntry {
	entries := make([]domain.BatchEntry, 0, len(group))
	for i, payload := range group {
		body, err := json.Marshal(payload)
		if err != nil {
			uc.logger.Error("payload_marshal_failed", "batch", batchIndex, "position", i, "error", err)
			continue
		}
		entries = append(entries, domain.BatchEntry{
			ID:       fmt.Sprintf("tender_message_%d_%d", batchIndex, i),
			GroupKey: domain.DispatchGroupKey,
			Body:     body,
		})
	}
	return entries
}

func (uc *DispatchTendersUseCase) handleRejected(ctx context.Context, batchIndex int, entries []domain.BatchEntry, failed []domain.FailedEntry) {
	if len(failed) == 0 {
		return
	}

	byID := make(map[string]domain.BatchEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	for _, f := range failed {
		uc.logger.Error("entry_rejected", "batch", batchIndex, "entry_id", f.ID, "reason", f.Reason)
		if uc.rejects == nil {
			continue
		}
		entry, ok := byID[f.ID]
		if !ok {
			continue
		}
		if err := uc.rejects.Store(ctx, entry, f.Reason); err != nil {
			uc.logger.Error("entry_spool_failed", "entry_id", f.ID, "error", err)
		}
	}
}
