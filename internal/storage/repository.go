// Package storage implements the persistent SQLite store: transactions and
// their recurring series, user accounts, auth sessions, and the audit log.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is the series occurrence index
// rejecting a duplicate (series key, date) insert.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx      core.Transaction
		rawDate string
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Amount.Cents, &tx.Type,
		&tx.Category, &rawDate, &tx.Description, &tx.Frequency)
	if err != nil {
		return core.Transaction{}, err
	}

	parsed, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx_date %q: %w", rawDate, err)
	}
	tx.Date = core.DateOf(parsed)
	return tx, nil
}

const transactionColumns = `id, owner_id, amount_cents, tx_type, category, tx_date, description, frequency`

// CreateTransaction implements store.TransactionWriter.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.Amount.Cents, tx.Type,
		tx.Category, tx.Date.Key(), tx.Description, tx.Frequency)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Transaction{}, store.ErrDuplicateOccurrence
		}
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.Key(),
		"frequency", tx.Frequency)

	return tx, nil
}

// UpdateTransaction implements store.TransactionWriter. Ownership is part of
// the WHERE clause so a non-owner update reads as not found.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, tx_type = ?, category = ?, tx_date = ?,
		    description = ?, frequency = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		tx.Amount.Cents, tx.Type, tx.Category, tx.Date.Key(),
		tx.Description, tx.Frequency, tx.ID, tx.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Transaction{}, store.ErrDuplicateOccurrence
		}
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, store.ErrNotFound
	}

	return tx, nil
}

// DeleteTransaction implements store.TransactionWriter.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListTransactions implements store.TransactionLister.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_id = ?
		ORDER BY tx_date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListTemplates implements store.SeriesReader.
func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE frequency != 'once'
		ORDER BY tx_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListOccurrenceDates implements store.SeriesReader.
func (r *SQLiteRepository) ListOccurrenceDates(ctx context.Context, key core.SeriesKey) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tx_date
		FROM transactions
		WHERE owner_id = ? AND category = ? AND amount_cents = ?
		  AND tx_type = ? AND frequency = ?`,
		key.OwnerID, key.Category, key.AmountCents, key.Type, key.Frequency)
	if err != nil {
		return nil, fmt.Errorf("query occurrence dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan occurrence date: %w", err)
		}
		dates[d] = struct{}{}
	}
	return dates, rows.Err()
}

// UpsertUser provisions or refreshes an account after a Google sign-in.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, picture, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    email = excluded.email,
		    name = excluded.name,
		    picture = excluded.picture,
		    last_login_at = excluded.last_login_at`,
		u.ID, u.Email, u.Name, u.Picture, now, now)
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}

	return r.GetUser(ctx, u.ID)
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, picture, created_at, last_login_at
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateSession records an issued token id so it can be revoked later.
func (r *SQLiteRepository) CreateSession(ctx context.Context, tokenID, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token_id, user_id, expires_at)
		VALUES (?, ?, ?)`, tokenID, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// RevokeSession marks a token id as revoked. Revoking an unknown or already
// revoked token is a no-op.
func (r *SQLiteRepository) RevokeSession(ctx context.Context, tokenID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP
		WHERE token_id = ? AND revoked_at IS NULL`, tokenID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// SessionActive reports whether a token id exists, is unrevoked, and has not
// expired.
func (r *SQLiteRepository) SessionActive(ctx context.Context, tokenID string) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx, `
		SELECT revoked_at IS NULL AND expires_at > CURRENT_TIMESTAMP
		FROM sessions WHERE token_id = ?`, tokenID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return active, nil
}

// AppendAuditEvent records one transaction event in the audit log.
func (r *SQLiteRepository) AppendAuditEvent(ctx context.Context, transactionID, ownerID, action string, occurredAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (transaction_id, owner_id, action, occurred_at)
		VALUES (?, ?, ?, ?)`, transactionID, ownerID, action, occurredAt.UTC())
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// AuditEntry is one row of the recent-activity feed.
type AuditEntry struct {
	TransactionID string
	OwnerID       string
	Action        string
	OccurredAt    time.Time
}

// RecentAuditEvents returns the newest audit rows for an owner.
func (r *SQLiteRepository) RecentAuditEvents(ctx context.Context, ownerID string, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, owner_id, action, occurred_at
		FROM audit_log
		WHERE owner_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.TransactionID, &e.OwnerID, &e.Action, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
