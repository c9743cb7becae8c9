package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned when a transaction id does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateOccurrence is returned when an insert collides with the
	// uniqueness constraint on (series key, date). Callers materializing
	// occurrences treat it as a no-op success.
	ErrDuplicateOccurrence = errors.New("occurrence already materialized")
)

// Ports for the transaction store the core collaborates with.
type (
	TransactionLister interface {
		// ListTransactions returns every transaction owned by ownerID.
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// CreateTransaction persists a transaction and returns it with the
		// store-assigned id.
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)

		// UpdateTransaction replaces the mutable fields of an owned record.
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)

		// DeleteTransaction removes an owned record.
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	// SeriesReader provides the recurrence engine's view of the store.
	SeriesReader interface {
		// ListTemplates returns every persisted transaction with a recurring
		// frequency, across all owners.
		ListTemplates(ctx context.Context) ([]core.Transaction, error)

		// ListOccurrenceDates returns the ISO date keys already present for a
		// series, the anchor record included.
		ListOccurrenceDates(ctx context.Context, key core.SeriesKey) (map[string]struct{}, error)
	}

	// TransactionStore is the full collaborator surface.
	TransactionStore interface {
		TransactionLister
		TransactionWriter
		SeriesReader
	}
)
