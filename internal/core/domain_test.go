package core

import (
	"errors"
	"strings"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		OwnerID:   "user-1",
		Amount:    Money{Cents: 1250},
		Type:      Expense,
		Category:  "Groceries",
		Date:      NewDate(2024, 3, 10),
		Frequency: Once,
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{
			name:    "valid transaction",
			mutate:  func(*Transaction) {},
			wantErr: nil,
		},
		{
			name:    "missing owner",
			mutate:  func(tx *Transaction) { tx.OwnerID = " " },
			wantErr: ErrEmptyOwner,
		},
		{
			name:    "negative amount",
			mutate:  func(tx *Transaction) { tx.Amount.Cents = -1 },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero amount is allowed",
			mutate:  func(tx *Transaction) { tx.Amount.Cents = 0 },
			wantErr: nil,
		},
		{
			name:    "unknown type",
			mutate:  func(tx *Transaction) { tx.Type = "transfer" },
			wantErr: ErrInvalidType,
		},
		{
			name:    "empty category",
			mutate:  func(tx *Transaction) { tx.Category = "" },
			wantErr: ErrEmptyCategory,
		},
		{
			name:    "zero date",
			mutate:  func(tx *Transaction) { tx.Date = Date{} },
			wantErr: ErrZeroDate,
		},
		{
			name:    "unknown frequency",
			mutate:  func(tx *Transaction) { tx.Frequency = "biweekly" },
			wantErr: ErrInvalidFrequency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_Validate_LongDescription(t *testing.T) {
	tx := validTransaction()
	tx.Description = strings.Repeat("x", 201)
	if err := tx.Validate(); err == nil {
		t.Error("Validate() accepted a 201-character description")
	}
}

func TestTransaction_Normalize(t *testing.T) {
	tx := Transaction{
		OwnerID:     "user-1",
		Amount:      Money{Cents: 100},
		Type:        Income,
		Category:    "  Salary ",
		Description: " pay ",
		Date:        NewDate(2024, 1, 15),
	}
	tx.Normalize()

	if tx.Frequency != Once {
		t.Errorf("Normalize() frequency = %q, want %q", tx.Frequency, Once)
	}
	if tx.Category != "Salary" {
		t.Errorf("Normalize() category = %q, want %q", tx.Category, "Salary")
	}
	if tx.Description != "pay" {
		t.Errorf("Normalize() description = %q, want %q", tx.Description, "pay")
	}
}

func TestFrequency_Recurring(t *testing.T) {
	tests := []struct {
		freq Frequency
		want bool
	}{
		{Once, false},
		{Daily, true},
		{Weekly, true},
		{Monthly, true},
		{Quarterly, true},
		{Yearly, true},
		{Frequency("fortnightly"), false},
	}

	for _, tt := range tests {
		if got := tt.freq.Recurring(); got != tt.want {
			t.Errorf("Recurring(%q) = %v, want %v", tt.freq, got, tt.want)
		}
	}
}
