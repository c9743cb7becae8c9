package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Once      Frequency = "once"
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// Frequency describes how often a transaction repeats. Once marks a
	// standalone record; anything else marks the anchor of a recurring series.
	Frequency string

	// TxType is the direction of a transaction.
	TxType string

	// Date is a calendar date at UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is the single persisted entity: a dated amount owned by a
	// user, optionally acting as the template of a recurring series.
	Transaction struct {
		ID          string
		OwnerID     string
		Amount      Money
		Type        TxType
		Category    string
		Date        Date
		Description string
		Frequency   Frequency
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidPeriod    = errors.New("invalid reporting period")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyOwner       = errors.New("empty owner id")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Key returns the date in ISO form (2006-01-02), used for set membership
// when diffing occurrence dates against the store.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (f Frequency) Validate() error {
	switch f {
	case Once, Daily, Weekly, Monthly, Quarterly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// Recurring reports whether the frequency describes a repeating series.
func (f Frequency) Recurring() bool {
	return f != Once && f.Validate() == nil
}

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// Normalize fills defaulted fields: an empty frequency becomes Once, text
// fields are trimmed and the date is truncated to UTC midnight.
func (t *Transaction) Normalize() {
	if t.Frequency == "" {
		t.Frequency = Once
	}
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if !t.Date.IsZero() {
		t.Date = DateOf(t.Date.Time)
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return t.Frequency.Validate()
}

// IsTemplate reports whether the transaction anchors a recurring series.
func (t Transaction) IsTemplate() bool {
	return t.Frequency.Recurring()
}
