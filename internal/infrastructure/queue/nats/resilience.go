package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/procurewatch/tender-ingest/internal/core/domain"
	"github.com/procurewatch/tender-ingest/internal/infrastructure/resilience"
)

func classifyQueueError(err error) resilience.Classification {
	if err == nil {
		return resilience.Classification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Classification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Classification{Retryable: true, CountsAsFailure: true}
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return resilience.Classification{Retryable: true, CountsAsFailure: true}
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrNoStreamResponse) {
		return resilience.Classification{Retryable: true, CountsAsFailure: true}
	}

	return resilience.Classification{CountsAsFailure: true}
}

// wrapTemporary tags transient transport failures with domain.ErrTemporary so
// callers can decide on another attempt without knowing NATS error values.
func wrapTemporary(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyQueueError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
