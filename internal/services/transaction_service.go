package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// EventPublisher is the broker surface the services need. *amqp.Client
// satisfies it; tests substitute a fake.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

// TransactionService orchestrates transaction CRUD across the store and the
// event broker. Writes go to the store first; event publication is best
// effort and never fails the request.
type TransactionService struct {
	store  store.TransactionStore
	events EventPublisher
}

func NewTransactionService(st store.TransactionStore, events EventPublisher) *TransactionService {
	return &TransactionService{
		store:  st,
		events: events,
	}
}

// Create validates and persists a user-entered transaction.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, created, amqp.ActionCreated)

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"owner_id", created.OwnerID,
		"type", created.Type,
		"category", created.Category,
		"amount_cents", created.Amount.Cents,
		"frequency", created.Frequency)

	return created, nil
}

// Update replaces the mutable fields of an owned transaction.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, updated, amqp.ActionUpdated)
	return updated, nil
}

// Delete removes an owned transaction.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, core.Transaction{ID: id, OwnerID: ownerID}, amqp.ActionDeleted)
	return nil
}

// List returns every transaction owned by ownerID.
func (s *TransactionService) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Summary reads the owner's transactions and normalizes them to period.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, period core.Frequency) (core.Summary, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Summarize(txs, period)
}

func (s *TransactionService) publish(ctx context.Context, tx core.Transaction, action string) {
	if s.events == nil {
		return
	}
	msg := amqp.NewTransactionEventMessage(tx.ID, tx.OwnerID, action)
	if err := s.events.PublishTransactionEvent(ctx, msg); err != nil {
		// The store write already succeeded; don't fail the request.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", tx.ID,
			"action", action,
			"error", err)
	}
}
