package batching

import "github.com/procurewatch/tender-ingest/internal/core/domain"

// MaxGroupSize is the downstream transport's cap on entries per batched send.
const MaxGroupSize = 10

type Splitter struct{}

func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split partitions payloads into contiguous groups of at most MaxGroupSize,
// preserving input order within and across groups. Zero payloads yield zero
// groups; only the last group may be short.
func (s *Splitter) Split(payloads []domain.TenderPayload) [][]domain.TenderPayload {
	if len(payloads) == 0 {
		return nil
	}

	out := make([][]domain.TenderPayload, 0, (len(payloads)+MaxGroupSize-1)/MaxGroupSize)
	for start := 0; start < len(payloads); start += MaxGroupSize {
		end := start + MaxGroupSize
		if end > len(payloads) {
			end = len(payloads)
		}
		out = append(out, payloads[start:end])
	}
	return out
}
