package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

// Writer files away transport-rejected entries, one JSON document each, so an
// operator can inspect and replay them later.
type Writer struct {
	dir string
}

func New(dir string) (*Writer, error) {
	if dir == "" {
		dir = "./data/rejected"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

type rejectedEntry struct {
	EntryID    string          `json:"entry_id"`
	GroupKey   string          `json:"group_key"`
	Reason     string          `json:"reason"`
	RejectedAt time.Time       `json:"rejected_at"`
	Payload    json.RawMessage `json:"payload"`
}

func (w *Writer) Store(_ context.Context, entry domain.BatchEntry, reason string) error {
	doc := rejectedEntry{
		EntryID:    entry.ID,
		GroupKey:   entry.GroupKey,
		Reason:     reason,
		RejectedAt: time.Now().UTC(),
		Payload:    json.RawMessage(entry.Body),
	}
	if len(doc.Payload) == 0 {
		doc.Payload = json.RawMessage("null")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rejected entry: %w", err)
	}

	name := fmt.Sprintf("%d_%s.json", doc.RejectedAt.UnixNano(), entry.ID)
	if err := os.WriteFile(filepath.Join(w.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write rejected entry: %w", err)
	}
	return nil
}
