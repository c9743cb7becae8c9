package core

// This file implements the pure half of recurrence materialization: given a
// recurring template, enumerate the calendar occurrence dates due by a
// horizon, and diff them against what a store already holds.

import (
	"fmt"
	"iter"
	"time"
)

// SeriesKey identifies a recurring series. The data model carries no explicit
// series id, so occurrences are matched to their template by the fields a
// generated record copies verbatim.
type SeriesKey struct {
	OwnerID     string
	Category    string
	AmountCents int64
	Type        TxType
	Frequency   Frequency
}

// KeyOf derives the series-matching key for a transaction.
func KeyOf(t Transaction) SeriesKey {
	return SeriesKey{
		OwnerID:     t.OwnerID,
		Category:    t.Category,
		AmountCents: t.Amount.Cents,
		Type:        t.Type,
		Frequency:   t.Frequency,
	}
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%s/%s", k.OwnerID, k.Category, k.AmountCents, k.Type, k.Frequency)
}

// stepMonths is the calendar step per occurrence for month-based frequencies.
var stepMonths = map[Frequency]int{
	Monthly:   1,
	Quarterly: 3,
	Yearly:    12,
}

// addMonthsClamped advances anchor by months calendar months, clamping to the
// last day of the target month when the anchor's day-of-month does not exist
// there (Jan 31 + 1 month = Feb 29 in a leap year, Feb 28 otherwise).
// Stepping is always computed from the anchor so the day never drifts.
func addMonthsClamped(anchor Date, months int) Date {
	firstOfTarget := time.Date(anchor.Year(), time.Month(anchor.Month()+months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := anchor.Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(firstOfTarget.Year(), int(firstOfTarget.Month()), day)
}

// occurrenceAt returns the n-th occurrence after the anchor (n >= 1).
func occurrenceAt(anchor Date, freq Frequency, n int) Date {
	switch freq {
	case Daily:
		return DateOf(anchor.AddDate(0, 0, n))
	case Weekly:
		return DateOf(anchor.AddDate(0, 0, 7*n))
	default:
		return addMonthsClamped(anchor, stepMonths[freq]*n)
	}
}

// EnumerateOccurrences yields the occurrence dates of a recurring template,
// strictly after the anchor date (the template record itself counts as
// already materialized) and no later than throughDate. A non-recurring
// template yields nothing. The sequence is finite, restartable and free of
// side effects.
func EnumerateOccurrences(template Transaction, throughDate Date) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if !template.Frequency.Recurring() || template.Date.IsZero() {
			return
		}
		anchor := DateOf(template.Date.Time)
		for n := 1; ; n++ {
			d := occurrenceAt(anchor, template.Frequency, n)
			if d.After(throughDate.Time) {
				return
			}
			if !yield(d) {
				return
			}
		}
	}
}

// OccurrenceDates collects EnumerateOccurrences into a slice.
func OccurrenceDates(template Transaction, throughDate Date) []Date {
	var out []Date
	for d := range EnumerateOccurrences(template, throughDate) {
		out = append(out, d)
	}
	return out
}

// ComputeMissing returns the occurrence dates due by throughDate that are not
// in existingOccurrenceDates (ISO date keys, see Date.Key), oldest first so a
// partial failure leaves a contiguous prefix materialized. Calling it again
// with the previously missing dates included yields an empty set.
func ComputeMissing(template Transaction, existingOccurrenceDates map[string]struct{}, throughDate Date) []Date {
	var missing []Date
	for d := range EnumerateOccurrences(template, throughDate) {
		if _, ok := existingOccurrenceDates[d.Key()]; ok {
			continue
		}
		missing = append(missing, d)
	}
	return missing
}
