package domain

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunSummary is what one ingestion run reports back to its invoker. Message
// is set on success, Error on failure; the counters cover the whole run.
type RunSummary struct {
	RunID    string
	Status   RunStatus
	Message  string
	Error    string
	Fetched  int
	Accepted int
	Skipped  int
	Sent     int
}
