// Package services provides business logic and orchestration over the
// transaction store: CRUD with event publication, and the recurrence
// processor that materializes recurring templates into dated records.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// defaultSeriesConcurrency bounds how many series are processed in parallel.
const defaultSeriesConcurrency = 4

// OccurrenceFailure records one occurrence (or series read) that could not be
// materialized. Date is zero for series-level failures.
type OccurrenceFailure struct {
	Series core.SeriesKey
	Date   core.Date
	Err    error
}

func (f OccurrenceFailure) Error() string {
	if f.Date.IsZero() {
		return fmt.Sprintf("series %s: %v", f.Series, f.Err)
	}
	return fmt.Sprintf("series %s occurrence %s: %v", f.Series, f.Date.Key(), f.Err)
}

// RunReport is the structured outcome of one materialization run. The run
// itself never fails for per-occurrence errors; callers inspect Failures.
type RunReport struct {
	Created  []core.Transaction
	Failures []OccurrenceFailure
}

// RecurrenceProcessor turns recurring templates into concrete transaction
// records. It is stateless between runs: idempotence is re-derived from the
// store on every invocation.
type RecurrenceProcessor struct {
	store       store.TransactionStore
	events      EventPublisher
	concurrency int
}

// NewRecurrenceProcessor creates a processor. events may be nil when no
// broker is configured.
func NewRecurrenceProcessor(st store.TransactionStore, events EventPublisher) *RecurrenceProcessor {
	return &RecurrenceProcessor{
		store:       st,
		events:      events,
		concurrency: defaultSeriesConcurrency,
	}
}

// Run materializes every occurrence due by now across all recurring series.
// Series are processed concurrently; occurrences within a series run oldest
// to newest so a partial failure leaves a contiguous prefix materialized.
func (p *RecurrenceProcessor) Run(ctx context.Context, now time.Time) (RunReport, error) {
	if p.store == nil {
		return RunReport{}, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.store.ListTemplates(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list recurring templates: %w", err)
	}

	// Every stored row of a series carries the same matching key, the anchor
	// and its materialized occurrences alike. The earliest-dated row is the
	// anchor; later rows are occurrences and are already covered by the
	// occurrence-date set, so each key collapses to exactly one series.
	anchors := make(map[core.SeriesKey]core.Transaction)
	for _, tmpl := range templates {
		key := core.KeyOf(tmpl)
		existing, ok := anchors[key]
		if !ok || tmpl.Date.Before(existing.Date.Time) {
			anchors[key] = tmpl
		}
	}

	horizon := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring series",
		"series", len(anchors),
		"templates", len(templates),
		"through", horizon.Key())

	var (
		mu     sync.Mutex
		report RunReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for key, anchor := range anchors {
		g.Go(func() error {
			created, failures := p.runSeries(gctx, key, anchor, horizon)
			mu.Lock()
			report.Created = append(report.Created, created...)
			report.Failures = append(report.Failures, failures...)
			mu.Unlock()
			return nil
		})
	}

	// Goroutines return nil; failures travel through the report.
	_ = g.Wait()

	slog.InfoContext(ctx, "Recurring materialization complete",
		"created", len(report.Created),
		"failures", len(report.Failures))

	return report, nil
}

// runSeries materializes the missing occurrences of one series.
func (p *RecurrenceProcessor) runSeries(ctx context.Context, key core.SeriesKey, anchor core.Transaction, horizon core.Date) ([]core.Transaction, []OccurrenceFailure) {
	existing, err := p.store.ListOccurrenceDates(ctx, key)
	if err != nil {
		return nil, []OccurrenceFailure{{Series: key, Err: fmt.Errorf("list occurrence dates: %w", err)}}
	}

	missing := core.ComputeMissing(anchor, existing, horizon)
	if len(missing) == 0 {
		return nil, nil
	}

	var (
		created  []core.Transaction
		failures []OccurrenceFailure
	)
	for _, date := range missing {
		record := anchor
		record.ID = ""
		record.Date = date

		persisted, err := p.store.CreateTransaction(ctx, record)
		if err != nil {
			// A concurrent run may have won the race for this date; the
			// occurrence exists either way.
			if errors.Is(err, store.ErrDuplicateOccurrence) {
				continue
			}
			slog.ErrorContext(ctx, "Failed to materialize occurrence",
				"series", key.String(),
				"date", date.Key(),
				"error", err)
			failures = append(failures, OccurrenceFailure{Series: key, Date: date, Err: err})
			continue
		}

		created = append(created, persisted)
		p.publishEvent(ctx, persisted, amqp.ActionMaterialized)
	}

	return created, failures
}

func (p *RecurrenceProcessor) publishEvent(ctx context.Context, tx core.Transaction, action string) {
	if p.events == nil {
		return
	}
	msg := amqp.NewTransactionEventMessage(tx.ID, tx.OwnerID, action)
	if err := p.events.PublishTransactionEvent(ctx, msg); err != nil {
		// Materialization succeeded; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish materialization event",
			"transaction_id", tx.ID,
			"error", err)
	}
}
