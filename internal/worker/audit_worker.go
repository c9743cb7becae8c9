// Package worker consumes transaction events off the broker and appends
// them to the audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
)

// AuditSink is where processed events land. The SQLite repository
// satisfies it.
type AuditSink interface {
	AppendAuditEvent(ctx context.Context, transactionID, ownerID, action string, occurredAt time.Time) error
}

// AuditWorker turns the transaction event stream into the recent-activity
// feed.
type AuditWorker struct {
	sink AuditSink
}

func NewAuditWorker(sink AuditSink) *AuditWorker {
	return &AuditWorker{sink: sink}
}

// HandleEvent records one event. Returning an error makes the broker
// redeliver the message.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if msg.TransactionID == "" || msg.OwnerID == "" || msg.Action == "" {
		// Malformed events are dropped, not redelivered.
		slog.WarnContext(ctx, "Dropping incomplete transaction event",
			"transaction_id", msg.TransactionID,
			"owner_id", msg.OwnerID,
			"action", msg.Action)
		return nil
	}

	occurredAt := msg.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	if err := w.sink.AppendAuditEvent(ctx, msg.TransactionID, msg.OwnerID, msg.Action, occurredAt); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}

	slog.InfoContext(ctx, "Audit event recorded",
		"transaction_id", msg.TransactionID,
		"owner_id", msg.OwnerID,
		"action", msg.Action)

	return nil
}

// Handler adapts HandleEvent to the broker consumer signature.
func (w *AuditWorker) Handler(ctx context.Context) func(*amqp.TransactionEventMessage) error {
	return func(msg *amqp.TransactionEventMessage) error {
		return w.HandleEvent(ctx, msg)
	}
}
