// Package memory provides an in-memory TransactionStore used by tests and
// the memory backend. Safe for concurrent use.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items map[string]core.Transaction
}

func New() *Store {
	return &Store{items: make(map[string]core.Transaction)}
}

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.IsTemplate() {
		key := core.KeyOf(tx)
		for _, existing := range s.items {
			if core.KeyOf(existing) == key && existing.Date.Key() == tx.Date.Key() {
				return core.Transaction{}, store.ErrDuplicateOccurrence
			}
		}
	}
	tx.ID = uuid.NewString()
	s.items[tx.ID] = tx
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[tx.ID]
	if !ok || existing.OwnerID != tx.OwnerID {
		return core.Transaction{}, store.ErrNotFound
	}
	s.items[tx.ID] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[id]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListTemplates(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if tx.IsTemplate() {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) ListOccurrenceDates(_ context.Context, key core.SeriesKey) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make(map[string]struct{})
	for _, tx := range s.items {
		if core.KeyOf(tx) == key {
			dates[tx.Date.Key()] = struct{}{}
		}
	}
	return dates, nil
}
