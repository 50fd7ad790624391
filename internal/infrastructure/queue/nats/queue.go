package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/resilience"
)

// Per-message headers carrying dispatch metadata. The entry id is correlation
// only and is deliberately not set as Nats-Msg-Id, which would give it
// deduplication semantics this feed does not want.
const (
	headerEntryID  = "Entry-Id"
	headerGroupKey = "Group-Id"
)

// Queue publishes batched tender payloads to one JetStream subject.
type Queue struct {
	conn           *nats.Conn
	js             nats.JetStreamContext
	subject        string
	publishTimeout time.Duration
	executor       *resilience.Executor
	logger         *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	PublishTimeout       time.Duration

	// Stream, when set, is created at startup if it does not exist yet,
	// bound to the publish subject.
	Stream string

	// ResilienceExecutor, when set, re-publishes transport-rejected entries
	// under its retry and breaker policy before reporting them failed.
	ResilienceExecutor *resilience.Executor

	Logger *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	publishTimeout := options.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 10 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("tender-ingest"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	if options.Stream != "" {
		if err := ensureStream(js, options.Stream, subject); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &Queue{
		conn:           conn,
		js:             js,
		subject:        subject,
		publishTimeout: publishTimeout,
		executor:       options.ResilienceExecutor,
		logger:         logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishBatch sends every entry of one group asynchronously, waits for the
// acks, and reports per-entry outcomes. A returned error means the group as a
// whole could not be sent or confirmed in time. When a resilience executor is
// configured, rejected entries are re-published under its policy before they
// count as failed.
func (q *Queue) PublishBatch(ctx context.Context, entries []domain.BatchEntry) (domain.BatchResult, error) {
	res, err := q.publishOnce(ctx, entries)
	if err != nil {
		return res, err
	}
	if q.executor == nil || len(res.Failed) == 0 {
		return res, nil
	}
	return q.republishRejected(ctx, entries, res), nil
}

func (q *Queue) publishOnce(ctx context.Context, entries []domain.BatchEntry) (domain.BatchResult, error) {
	if len(entries) == 0 {
		return domain.BatchResult{}, nil
	}

	futures := make([]nats.PubAckFuture, len(entries))
	for i, entry := range entries {
		future, err := q.js.PublishMsgAsync(buildMsg(q.subject, entry))
		if err != nil {
			return domain.BatchResult{}, wrapTemporary("jetstream publish", err)
		}
		futures[i] = future
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-time.After(q.publishTimeout):
		return domain.BatchResult{}, wrapTemporary("jetstream publish",
			fmt.Errorf("%w: waiting for %d acks", nats.ErrTimeout, len(entries)))
	case <-ctx.Done():
		return domain.BatchResult{}, ctx.Err()
	}

	var res domain.BatchResult
	for i, future := range futures {
		select {
		case <-future.Ok():
			res.Successful = append(res.Successful, entries[i].ID)
		case err := <-future.Err():
			res.Failed = append(res.Failed, domain.FailedEntry{ID: entries[i].ID, Reason: err.Error()})
		default:
			res.Failed = append(res.Failed, domain.FailedEntry{ID: entries[i].ID, Reason: "ack not received"})
		}
	}
	return res, nil
}

// republishRejected re-sends the failed subset of entries under the executor
// policy, shrinking the subset after every attempt. Entries still rejected
// when the policy gives up are reported with their last failure reason.
func (q *Queue) republishRejected(ctx context.Context, entries []domain.BatchEntry, first domain.BatchResult) domain.BatchResult {
	out := domain.BatchResult{Successful: first.Successful}
	pending := selectEntries(entries, first.Failed)
	lastFailed := first.Failed

	err := q.executor.Do(ctx, "jetstream.republish", func(ctx context.Context) error {
		res, err := q.publishOnce(ctx, pending)
		if err != nil {
			return err
		}
		out.Successful = append(out.Successful, res.Successful...)
		lastFailed = res.Failed
		if len(res.Failed) > 0 {
			pending = selectEntries(pending, res.Failed)
			return domain.WrapError(domain.ErrTemporary, "jetstream republish",
				fmt.Errorf("%d entries still rejected", len(res.Failed)))
		}
		return nil
	}, classifyQueueError)
	if err != nil {
		q.logger.Warn("republish_rejected_exhausted", "remaining", len(lastFailed), "error", err)
		out.Failed = lastFailed
	}
	return out
}

func selectEntries(entries []domain.BatchEntry, failed []domain.FailedEntry) []domain.BatchEntry {
	wanted := make(map[string]struct{}, len(failed))
	for _, f := range failed {
		wanted[f.ID] = struct{}{}
	}
	out := make([]domain.BatchEntry, 0, len(failed))
	for _, e := range entries {
		if _, ok := wanted[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

func buildMsg(subject string, entry domain.BatchEntry) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = entry.Body
	msg.Header.Set(headerEntryID, entry.ID)
	msg.Header.Set(headerGroupKey, entry.GroupKey)
	return msg
}

func ensureStream(js nats.JetStreamContext, stream, subject string) error {
	_, err := js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}
	if _, err := js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{subject},
	}); err != nil {
		return fmt.Errorf("add stream %s: %w", stream, err)
	}
	return nil
}
