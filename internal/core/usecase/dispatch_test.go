package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
)

type publishResult struct {
	res domain.BatchResult
	err error
}

// fakeQueue records every PublishBatch call and replays scripted results.
// With no script it confirms every entry.
type fakeQueue struct {
	calls   [][]domain.BatchEntry
	results []publishResult
}

func (q *fakeQueue) PublishBatch(_ context.Context, entries []domain.BatchEntry) (domain.BatchResult, error) {
	q.calls = append(q.calls, entries)
	if len(q.results) == 0 {
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		return domain.BatchResult{Successful: ids}, nil
	}
	next := q.results[0]
	q.results = q.results[1:]
	return next.res, next.err
}

type fakeBatcher struct{ size int }

func (b fakeBatcher) Split(payloads []domain.TenderPayload) [][]domain.TenderPayload {
	var groups [][]domain.TenderPayload
	for start := 0; start < len(payloads); start += b.size {
		end := start + b.size
		if end > len(payloads) {
			end = len(payloads)
		}
		groups = append(groups, payloads[start:end])
	}
	return groups
}

type storedReject struct {
	entry  domain.BatchEntry
	reason string
}

type fakeSink struct {
	stored []storedReject
	err    error
}

func (s *fakeSink) Store(_ context.Context, entry domain.BatchEntry, reason string) error {
	s.stored = append(s.stored, storedReject{entry: entry, reason: reason})
	return s.err
}

func makeRecords(n int) []domain.TenderRecord {
	recs := make([]domain.TenderRecord, n)
	for i := range recs {
		recs[i] = domain.TenderRecord{
			TenderID: fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Tender %d", i),
			Source:   domain.SourceTransnet,
		}
	}
	return recs
}

func TestDispatchSplitsIntoGroups(t *testing.T) {
	queue := &fakeQueue{}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{})

	sent := uc.Dispatch(context.Background(), makeRecords(25))
	if sent != 25 {
		t.Fatalf("expected 25 sent, got %d", sent)
	}
	if len(queue.calls) != 3 {
		t.Fatalf("expected 3 transport calls, got %d", len(queue.calls))
	}
	for i, want := range []int{10, 10, 5} {
		if len(queue.calls[i]) != want {
			t.Fatalf("expected call %d to carry %d entries, got %d", i, want, len(queue.calls[i]))
		}
	}
}

func TestDispatchEntryIdentityAndGroupKey(t *testing.T) {
	queue := &fakeQueue{}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{})

	uc.Dispatch(context.Background(), makeRecords(12))

	first := queue.calls[0][0]
	if first.ID != "tender_message_0_0" {
		t.Fatalf("expected tender_message_0_0, got %s", first.ID)
	}
	last := queue.calls[1][1]
	if last.ID != "tender_message_1_1" {
		t.Fatalf("expected tender_message_1_1, got %s", last.ID)
	}
	for _, call := range queue.calls {
		for _, e := range call {
			if e.GroupKey != domain.DispatchGroupKey {
				t.Fatalf("expected group key %s, got %s", domain.DispatchGroupKey, e.GroupKey)
			}
			if !strings.Contains(string(e.Body), `"source":"Transnet"`) {
				t.Fatalf("expected rendered payload body, got %s", e.Body)
			}
		}
	}
}

func TestDispatchCountsOnlyConfirmedEntries(t *testing.T) {
	queue := &fakeQueue{results: []publishResult{{
		res: domain.BatchResult{
			Successful: []string{"tender_message_0_0", "tender_message_0_2"},
			Failed:     []domain.FailedEntry{{ID: "tender_message_0_1", Reason: "nats: timeout"}},
		},
	}}}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{})

	sent := uc.Dispatch(context.Background(), makeRecords(3))
	if sent != 2 {
		t.Fatalf("expected 2 confirmed entries, got %d", sent)
	}
}

func TestDispatchContinuesAfterGroupFailure(t *testing.T) {
	queue := &fakeQueue{results: []publishResult{
		{err: fmt.Errorf("queue unavailable")},
		{res: domain.BatchResult{Successful: []string{"tender_message_1_0", "tender_message_1_1"}}},
	}}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{})

	sent := uc.Dispatch(context.Background(), makeRecords(12))
	if len(queue.calls) != 2 {
		t.Fatalf("expected both groups attempted, got %d calls", len(queue.calls))
	}
	if sent != 2 {
		t.Fatalf("expected 2 sent from the surviving group, got %d", sent)
	}
}

func TestDispatchEmptyInputSendsNothing(t *testing.T) {
	queue := &fakeQueue{}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{})

	if sent := uc.Dispatch(context.Background(), nil); sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}
	if len(queue.calls) != 0 {
		t.Fatalf("expected no transport calls, got %d", len(queue.calls))
	}
}

func TestDispatchSpoolsRejectedEntries(t *testing.T) {
	queue := &fakeQueue{results: []publishResult{{
		res: domain.BatchResult{
			Successful: []string{"tender_message_0_0"},
			Failed:     []domain.FailedEntry{{ID: "tender_message_0_1", Reason: "nats: no responders"}},
		},
	}}}
	sink := &fakeSink{}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{RejectSink: sink})

	uc.Dispatch(context.Background(), makeRecords(2))

	if len(sink.stored) != 1 {
		t.Fatalf("expected 1 spooled entry, got %d", len(sink.stored))
	}
	got := sink.stored[0]
	if got.entry.ID != "tender_message_0_1" {
		t.Fatalf("expected rejected entry spooled, got %s", got.entry.ID)
	}
	if got.reason != "nats: no responders" {
		t.Fatalf("expected rejection reason carried over, got %q", got.reason)
	}
	if len(got.entry.Body) == 0 {
		t.Fatalf("expected spooled entry to keep its body")
	}
}

func TestDispatchAbortsWhenContextCancelled(t *testing.T) {
	queue := &fakeQueue{}
	uc := NewDispatchTendersUseCase(queue, fakeBatcher{size: 10}, DispatchOptions{RatePerSecond: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if sent := uc.Dispatch(ctx, makeRecords(5)); sent != 0 {
		t.Fatalf("expected 0 sent after cancellation, got %d", sent)
	}
	if len(queue.calls) != 0 {
		t.Fatalf("expected no transport calls after cancellation, got %d", len(queue.calls))
	}
}
