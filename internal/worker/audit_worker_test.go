package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
)

type recordedEvent struct {
	transactionID string
	ownerID       string
	action        string
	occurredAt    time.Time
}

type fakeSink struct {
	events []recordedEvent
	err    error
}

func (s *fakeSink) AppendAuditEvent(_ context.Context, transactionID, ownerID, action string, occurredAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, recordedEvent{transactionID, ownerID, action, occurredAt})
	return nil
}

func TestAuditWorker_HandleEvent(t *testing.T) {
	sink := &fakeSink{}
	w := NewAuditWorker(sink)

	msg := amqp.NewTransactionEventMessage("tx-1", "user-1", amqp.ActionCreated)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("sink recorded %d events, want 1", len(sink.events))
	}
	got := sink.events[0]
	if got.transactionID != "tx-1" || got.ownerID != "user-1" || got.action != amqp.ActionCreated {
		t.Errorf("recorded event = %+v, want tx-1/user-1/%s", got, amqp.ActionCreated)
	}
	if got.occurredAt.IsZero() {
		t.Error("recorded event has zero timestamp")
	}
}

func TestAuditWorker_DropsIncompleteEvents(t *testing.T) {
	sink := &fakeSink{}
	w := NewAuditWorker(sink)

	tests := []*amqp.TransactionEventMessage{
		{OwnerID: "user-1", Action: amqp.ActionCreated},
		{TransactionID: "tx-1", Action: amqp.ActionCreated},
		{TransactionID: "tx-1", OwnerID: "user-1"},
	}

	for _, msg := range tests {
		// Incomplete events are acked, not redelivered.
		if err := w.HandleEvent(context.Background(), msg); err != nil {
			t.Errorf("HandleEvent(%+v) error = %v, want nil", msg, err)
		}
	}
	if len(sink.events) != 0 {
		t.Errorf("sink recorded %d events, want 0", len(sink.events))
	}
}

func TestAuditWorker_PropagatesSinkErrors(t *testing.T) {
	sinkErr := errors.New("db locked")
	w := NewAuditWorker(&fakeSink{err: sinkErr})

	msg := amqp.NewTransactionEventMessage("tx-1", "user-1", amqp.ActionDeleted)
	if err := w.HandleEvent(context.Background(), msg); !errors.Is(err, sinkErr) {
		t.Errorf("HandleEvent() error = %v, want %v", err, sinkErr)
	}
}
