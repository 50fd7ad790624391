package ports

import (
	"context"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

// TenderIngestor is the inbound contract for one ingestion run.
type TenderIngestor interface {
	Run(ctx context.Context) domain.RunSummary
}
