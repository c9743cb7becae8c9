package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func newTx(owner, category string, freq core.Frequency, date core.Date) core.Transaction {
	return core.Transaction{
		OwnerID:   owner,
		Amount:    core.Money{Cents: 5000},
		Type:      core.Expense,
		Category:  category,
		Date:      date,
		Frequency: freq,
	}
}

func TestStore_CreateAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, newTx("alice", "Rent", core.Monthly, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateTransaction() did not assign an id")
	}

	if _, err := s.CreateTransaction(ctx, newTx("bob", "Food", core.Once, core.NewDate(2024, 1, 2))); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	got, err := s.ListTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 1 || got[0].Category != "Rent" {
		t.Errorf("ListTransactions(alice) = %+v, want the single Rent record", got)
	}
}

func TestStore_DuplicateOccurrenceRejected(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx := newTx("alice", "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	if _, err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("first create error = %v", err)
	}
	if _, err := s.CreateTransaction(ctx, tx); !errors.Is(err, store.ErrDuplicateOccurrence) {
		t.Errorf("second create error = %v, want %v", err, store.ErrDuplicateOccurrence)
	}

	// Identical one-off records on the same day are legal.
	once := newTx("alice", "Coffee", core.Once, core.NewDate(2024, 1, 1))
	if _, err := s.CreateTransaction(ctx, once); err != nil {
		t.Fatalf("once create error = %v", err)
	}
	if _, err := s.CreateTransaction(ctx, once); err != nil {
		t.Errorf("duplicate once create error = %v, want nil", err)
	}
}

func TestStore_UpdateAndDeleteEnforceOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, newTx("alice", "Rent", core.Once, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	stolen := created
	stolen.OwnerID = "mallory"
	if _, err := s.UpdateTransaction(ctx, stolen); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-owner update error = %v, want %v", err, store.ErrNotFound)
	}
	if err := s.DeleteTransaction(ctx, "mallory", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-owner delete error = %v, want %v", err, store.ErrNotFound)
	}

	created.Category = "Housing"
	if _, err := s.UpdateTransaction(ctx, created); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if err := s.DeleteTransaction(ctx, "alice", created.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	got, _ := s.ListTransactions(ctx, "alice")
	if len(got) != 0 {
		t.Errorf("store still holds %d records after delete", len(got))
	}
}

func TestStore_SeriesReads(t *testing.T) {
	s := New()
	ctx := context.Background()

	anchor := newTx("alice", "Rent", core.Monthly, core.NewDate(2024, 1, 31))
	if _, err := s.CreateTransaction(ctx, anchor); err != nil {
		t.Fatalf("create anchor error = %v", err)
	}
	occurrence := anchor
	occurrence.Date = core.NewDate(2024, 2, 29)
	if _, err := s.CreateTransaction(ctx, occurrence); err != nil {
		t.Fatalf("create occurrence error = %v", err)
	}
	if _, err := s.CreateTransaction(ctx, newTx("alice", "Coffee", core.Once, core.NewDate(2024, 1, 5))); err != nil {
		t.Fatalf("create once error = %v", err)
	}

	templates, err := s.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("ListTemplates() error = %v", err)
	}
	if len(templates) != 2 {
		t.Errorf("ListTemplates() = %d records, want 2 (anchor + occurrence)", len(templates))
	}

	dates, err := s.ListOccurrenceDates(ctx, core.KeyOf(anchor))
	if err != nil {
		t.Fatalf("ListOccurrenceDates() error = %v", err)
	}
	for _, want := range []string{"2024-01-31", "2024-02-29"} {
		if _, ok := dates[want]; !ok {
			t.Errorf("ListOccurrenceDates() missing %s: %v", want, dates)
		}
	}
	if len(dates) != 2 {
		t.Errorf("ListOccurrenceDates() = %d dates, want 2", len(dates))
	}
}
