package usecase

import (
	"fmt"
	"log/slog"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

// NormalizeResult carries the pipeline outcome: accepted records in input
// order plus the number of listings excluded.
type NormalizeResult struct {
	Records []domain.TenderRecord
	Skipped int
}

type NormalizeTendersUseCase struct {
	logger *slog.Logger
}

func NewNormalizeTendersUseCase(logger *slog.Logger) *NormalizeTendersUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizeTendersUseCase{logger: logger}
}

// Normalize parses every raw listing independently, in input order. One
// broken listing never aborts the rest; it is counted and logged instead.
func (uc *NormalizeTendersUseCase) Normalize(items []domain.RawTender) NormalizeResult {
	res := NormalizeResult{Records: make([]domain.TenderRecord, 0, len(items))}

	for _, item := range items {
		outcome := uc.parseItem(item)

		for _, w := range outcome.Warnings {
			uc.logger.Warn("tender_field_unparsable",
				"tender_id", w.TenderID,
				"field", w.Field,
				"value", w.Value,
			)
		}

		if outcome.Skip != nil {
			res.Skipped++
			uc.logSkip(outcome.Skip)
			continue
		}
		res.Records = append(res.Records, *outcome.Record)
	}

	if res.Skipped > 0 {
		uc.logger.Warn("tenders_skipped", "count", res.Skipped)
	}
	uc.logger.Info("tenders_normalized", "accepted", len(res.Records), "skipped", res.Skipped)
	return res
}

// parseItem guards the factory call; a panic on one listing degrades to a
// parse-error skip for that listing only.
func (uc *NormalizeTendersUseCase) parseItem(item domain.RawTender) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Outcome{Skip: &domain.Skip{
				TenderID: item.Identifier(),
				Reason:   domain.SkipParseError,
				Err:      fmt.Errorf("panic: %v", r),
			}}
		}
	}()
	return domain.ParseTender(item)
}

func (uc *NormalizeTendersUseCase) logSkip(skip *domain.Skip) {
	// A listing without an identifier is expected filtering, not a fault.
	if skip.Reason == domain.SkipMissingIdentifier {
		uc.logger.Debug("tender_skipped", "reason", skip.Reason)
		return
	}
	uc.logger.Warn("tender_skipped", "tender_id", skip.TenderID, "reason", skip.Reason, "error", skip.Err)
}
