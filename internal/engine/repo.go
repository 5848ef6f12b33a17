// Package engine is the authoritative ledger store and its HTTP surface.
// It alone computes remaining_amount and flips status; clients read whole
// obligation records and never patch those fields.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"splitbook/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("obligation not found")
	ErrAlreadySettled = errors.New("obligation already settled")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
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

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const obligationColumns = `id, person_name, direction, type, total_amount_paise,
	expected_per_cycle_paise, status, note, trxn_id, created_at`

// List returns obligations newest first, each with its transactions and
// engine-computed remaining amount. An empty status returns everything.
func (r *Repository) List(ctx context.Context, status core.Status) ([]core.Obligation, error) {
	query := "SELECT " + obligationColumns + " FROM obligations"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	var obs []core.Obligation
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obs = append(obs, ob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}

	for i := range obs {
		if err := r.loadTransactions(ctx, &obs[i]); err != nil {
			return nil, err
		}
	}
	return obs, nil
}

// Get returns one obligation with its transactions.
func (r *Repository) Get(ctx context.Context, id string) (core.Obligation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+obligationColumns+" FROM obligations WHERE id = ?", id)
	ob, err := scanObligation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Obligation{}, ErrNotFound
		}
		return core.Obligation{}, err
	}
	if err := r.loadTransactions(ctx, &ob); err != nil {
		return core.Obligation{}, err
	}
	return ob, nil
}

// Create inserts a new active obligation and returns the stored record.
func (r *Repository) Create(ctx context.Context, ob core.Obligation) (core.Obligation, error) {
	ob.ID = uuid.NewString()
	ob.Status = core.StatusActive
	if ob.CreatedAt.IsZero() {
		ob.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO obligations (id, person_name, direction, type,
			total_amount_paise, expected_per_cycle_paise, status, note, trxn_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ob.ID, ob.PersonName, string(ob.Direction), string(ob.Type),
		int64(ob.TotalAmount), int64(ob.ExpectedPerCycle), string(ob.Status),
		ob.Note, ob.TrxnID, ob.CreatedAt)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("insert obligation: %w", err)
	}

	return r.Get(ctx, ob.ID)
}

// UpdateFields is the set of editable columns; nil fields are left unchanged.
type UpdateFields struct {
	PersonName       *string
	TotalAmount      *core.Money
	ExpectedPerCycle *core.Money
	Note             *string
}

// Update patches the editable fields of an obligation. Remaining amount is
// recomputed on read, so raising or lowering the total takes effect
// immediately.
func (r *Repository) Update(ctx context.Context, id string, fields UpdateFields) (core.Obligation, error) {
	var (
		sets []string
		args []any
	)
	if fields.PersonName != nil {
		sets = append(sets, "person_name = ?")
		args = append(args, *fields.PersonName)
	}
	if fields.TotalAmount != nil {
		sets = append(sets, "total_amount_paise = ?")
		args = append(args, int64(*fields.TotalAmount))
	}
	if fields.ExpectedPerCycle != nil {
		sets = append(sets, "expected_per_cycle_paise = ?")
		args = append(args, int64(*fields.ExpectedPerCycle))
	}
	if fields.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *fields.Note)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	query := "UPDATE obligations SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("update obligation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Obligation{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes an obligation and its transactions permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM obligations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete obligation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTransaction records a payment against an active obligation and returns
// the refreshed record. Settling happens only through Settle, even when the
// payment covers the full remaining amount.
func (r *Repository) AddTransaction(ctx context.Context, id string, amount core.Money, note string) (core.Obligation, error) {
	ob, err := r.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, err
	}
	if ob.Status == core.StatusSettled {
		return core.Obligation{}, ErrAlreadySettled
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (obligation_id, amount_paise, note, paid_at)
		VALUES (?, ?, ?, ?)`,
		id, int64(amount), note, time.Now().UTC())
	if err != nil {
		return core.Obligation{}, fmt.Errorf("insert transaction: %w", err)
	}

	return r.Get(ctx, id)
}

// Settle marks an active obligation settled.
func (r *Repository) Settle(ctx context.Context, id string) (core.Obligation, error) {
	ob, err := r.Get(ctx, id)
	if err != nil {
		return core.Obligation{}, err
	}
	if ob.Status == core.StatusSettled {
		return core.Obligation{}, ErrAlreadySettled
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE obligations SET status = ? WHERE id = ?", string(core.StatusSettled), id)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("settle obligation: %w", err)
	}
	return r.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (core.Obligation, error) {
	var (
		ob                        core.Obligation
		direction, obType, status string
		totalPaise, perCyclePaise int64
	)
	err := row.Scan(&ob.ID, &ob.PersonName, &direction, &obType,
		&totalPaise, &perCyclePaise, &status, &ob.Note, &ob.TrxnID, &ob.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Obligation{}, err
		}
		return core.Obligation{}, fmt.Errorf("scan obligation: %w", err)
	}
	ob.Direction = core.Direction(direction)
	ob.Type = core.ObligationType(obType)
	ob.Status = core.Status(status)
	ob.TotalAmount = core.Money(totalPaise)
	ob.ExpectedPerCycle = core.Money(perCyclePaise)
	return ob, nil
}

// loadTransactions fills the obligation's payment history and derives the
// remaining amount: total minus payments, clamped to [0, total]. Settled
// obligations report zero remaining.
func (r *Repository) loadTransactions(ctx context.Context, ob *core.Obligation) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT amount_paise, note, paid_at FROM transactions
		WHERE obligation_id = ? ORDER BY paid_at ASC, id ASC`, ob.ID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	ob.Transactions = []core.Transaction{}
	var paid int64
	for rows.Next() {
		var (
			t     core.Transaction
			paise int64
		)
		if err := rows.Scan(&paise, &t.Note, &t.PaidAt); err != nil {
			return fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money(paise)
		paid += paise
		ob.Transactions = append(ob.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	if ob.Status == core.StatusSettled {
		ob.RemainingAmount = 0
		return nil
	}
	remaining := int64(ob.TotalAmount) - paid
	if remaining < 0 {
		remaining = 0
	}
	ob.RemainingAmount = core.Money(remaining)
	return nil
}
