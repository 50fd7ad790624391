package domain

// BatchEntry is one message of a batched send. ID correlates per-entry
// transport results within the run; it carries no deduplication semantics.
type BatchEntry struct {
	ID       string
	GroupKey string
	Body     []byte
}

type FailedEntry struct {
	ID     string
	Reason string
}

// BatchResult reports the per-entry outcome of one batched send. A send can
// partially succeed; only Successful entries count as delivered.
type BatchResult struct {
	Successful []string
	Failed     []FailedEntry
}
