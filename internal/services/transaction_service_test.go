package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) PublishTransactionEvent(_ context.Context, _ *amqp.TransactionEventMessage) error {
	p.calls++
	return errors.New("broker unavailable")
}

func TestTransactionService_CreateAndList(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewTransactionService(memory.New(), pub)

	created, err := svc.Create(context.Background(), core.Transaction{
		OwnerID:  "user-1",
		Amount:   core.Money{Cents: 4500},
		Type:     core.Expense,
		Category: "  Groceries  ",
		Date:     core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() assigned no id")
	}
	if got, want := created.Category, "Groceries"; got != want {
		t.Errorf("Create() category = %q, want %q", got, want)
	}
	if got, want := created.Frequency, core.Once; got != want {
		t.Errorf("Create() frequency = %q, want %q", got, want)
	}

	txs, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("List() returned %d transactions, want 1", len(txs))
	}

	if len(pub.messages) != 1 || pub.messages[0].Action != amqp.ActionCreated {
		t.Errorf("published events = %+v, want one %s event", pub.messages, amqp.ActionCreated)
	}
}

func TestTransactionService_CreateRejectsInvalid(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{
			name: "negative amount",
			tx: core.Transaction{
				OwnerID:  "user-1",
				Amount:   core.Money{Cents: -100},
				Type:     core.Expense,
				Category: "Dining",
				Date:     core.NewDate(2024, 3, 5),
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "unknown type",
			tx: core.Transaction{
				OwnerID:  "user-1",
				Amount:   core.Money{Cents: 100},
				Type:     "transfer",
				Category: "Dining",
				Date:     core.NewDate(2024, 3, 5),
			},
			wantErr: core.ErrInvalidType,
		},
		{
			name: "blank category",
			tx: core.Transaction{
				OwnerID: "user-1",
				Amount:  core.Money{Cents: 100},
				Type:    core.Expense,
				Date:    core.NewDate(2024, 3, 5),
			},
			wantErr: core.ErrEmptyCategory,
		},
		{
			name: "zero date",
			tx: core.Transaction{
				OwnerID:  "user-1",
				Amount:   core.Money{Cents: 100},
				Type:     core.Expense,
				Category: "Dining",
			},
			wantErr: core.ErrZeroDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.tx); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionService_CreateSurvivesBrokerOutage(t *testing.T) {
	pub := &failingPublisher{}
	svc := NewTransactionService(memory.New(), pub)

	created, err := svc.Create(context.Background(), core.Transaction{
		OwnerID:  "user-1",
		Amount:   core.Money{Cents: 4500},
		Type:     core.Expense,
		Category: "Groceries",
		Date:     core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("Create() error = %v, want nil despite publish failure", err)
	}
	if created.ID == "" {
		t.Error("Create() assigned no id")
	}
	if pub.calls != 1 {
		t.Errorf("publisher called %d times, want 1", pub.calls)
	}
}

func TestTransactionService_UpdateAndDelete(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewTransactionService(memory.New(), pub)

	created, err := svc.Create(context.Background(), core.Transaction{
		OwnerID:  "user-1",
		Amount:   core.Money{Cents: 4500},
		Type:     core.Expense,
		Category: "Groceries",
		Date:     core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	created.Amount = core.Money{Cents: 5200}
	updated, err := svc.Update(context.Background(), created)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got, want := updated.Amount.Cents, int64(5200); got != want {
		t.Errorf("Update() amount = %d, want %d", got, want)
	}

	stranger := created
	stranger.OwnerID = "user-2"
	if _, err := svc.Update(context.Background(), stranger); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update() by non-owner error = %v, want %v", err, store.ErrNotFound)
	}

	if err := svc.Delete(context.Background(), "user-2", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want %v", err, store.ErrNotFound)
	}
	if err := svc.Delete(context.Background(), "user-1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	txs, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("List() after delete returned %d transactions, want 0", len(txs))
	}

	wantActions := []string{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}
	if len(pub.messages) != len(wantActions) {
		t.Fatalf("published %d events, want %d", len(pub.messages), len(wantActions))
	}
	for i, want := range wantActions {
		if got := pub.messages[i].Action; got != want {
			t.Errorf("event %d action = %s, want %s", i, got, want)
		}
	}
}

func TestTransactionService_Summary(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)
	ctx := context.Background()

	seed := []core.Transaction{
		{OwnerID: "user-1", Amount: core.Money{Cents: 120000}, Type: core.Income, Category: "Salary", Date: core.NewDate(2024, 1, 1), Frequency: core.Monthly},
		{OwnerID: "user-1", Amount: core.Money{Cents: 30000}, Type: core.Expense, Category: "Rent", Date: core.NewDate(2024, 1, 1), Frequency: core.Monthly},
		{OwnerID: "user-2", Amount: core.Money{Cents: 999900}, Type: core.Income, Category: "Salary", Date: core.NewDate(2024, 1, 1), Frequency: core.Monthly},
	}
	for _, tx := range seed {
		if _, err := svc.Create(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	summary, err := svc.Summary(ctx, "user-1", core.Yearly)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got, want := summary.TotalIncome, 14400.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalIncome = %v, want %v", got, want)
	}
	if got, want := summary.TotalExpenses, 3600.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalExpenses = %v, want %v", got, want)
	}
	if got, want := summary.IncomeCategories["Salary"], 14400.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("IncomeCategories[Salary] = %v, want %v", got, want)
	}

	if _, err := svc.Summary(ctx, "user-1", core.Once); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("Summary(once) error = %v, want %v", err, core.ErrInvalidPeriod)
	}
}
