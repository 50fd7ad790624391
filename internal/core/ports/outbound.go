package ports

import (
	"context"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

// TenderSource fetches the currently advertised raw listings.
type TenderSource interface {
	FetchAdvertised(ctx context.Context) ([]domain.RawTender, error)
}

// MessageQueue delivers one group of entries in a single batched send and
// reports per-entry outcomes. A non-nil error means the whole group failed.
type MessageQueue interface {
	PublishBatch(ctx context.Context, entries []domain.BatchEntry) (domain.BatchResult, error)
}

// Batcher partitions payloads into contiguous bounded-size groups.
type Batcher interface {
	Split(payloads []domain.TenderPayload) [][]domain.TenderPayload
}

// RejectSink records entries the transport refused, for manual replay.
type RejectSink interface {
	Store(ctx context.Context, entry domain.BatchEntry, reason string) error
}
