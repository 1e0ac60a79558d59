package ledger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx used by the read side. pgxmock satisfies it.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Executor is the subset of pgx.Tx the write helpers need. The scheduling
// store passes its open transaction here so ledger writes share the booking's
// unit of work.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads the ledger audit trail from Postgres.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("ledger: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record is implemented via ApplyTransfer/RecordGrant inside a transaction;
// standalone appends are not part of the Postgres write path.
func (r *PostgresRepository) Record(ctx context.Context, tx Transaction) (*Transaction, error) {
	return nil, fmt.Errorf("ledger: standalone record not supported on postgres, use ApplyTransfer")
}

// ListByAccount returns an account's transactions, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, account_id, booking_id, amount, kind, created_at
		FROM ledger_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list by account: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		var bookingID pgtype.UUID
		var kind string
		if err := rows.Scan(&tx.ID, &tx.AccountID, &bookingID, &tx.Amount, &kind, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan transaction: %w", err)
		}
		tx.Kind = Kind(kind)
		if bookingID.Valid {
			id := uuid.UUID(bookingID.Bytes)
			tx.BookingID = &id
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ApplyTransfer moves amount credits from one account to another inside the
// caller's transaction: two ledger rows summing to zero plus both balance
// updates. Balances are locked in deterministic id order so concurrent
// transfers touching the same pair cannot deadlock.
func ApplyTransfer(ctx context.Context, q Executor, from, to uuid.UUID, amount int64, bookingID *uuid.UUID, debitKind, creditKind Kind) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: transfer amount must be positive, got %d", amount)
	}

	first, second := from, to
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	var firstBalance, secondBalance int64
	if err := q.QueryRow(ctx, `SELECT credits FROM accounts WHERE id = $1 FOR UPDATE`, first).Scan(&firstBalance); err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return fmt.Errorf("ledger: lock account: %w", err)
	}
	if err := q.QueryRow(ctx, `SELECT credits FROM accounts WHERE id = $1 FOR UPDATE`, second).Scan(&secondBalance); err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return fmt.Errorf("ledger: lock account: %w", err)
	}

	fromBalance := firstBalance
	if from == second {
		fromBalance = secondBalance
	}
	if fromBalance < amount {
		return ErrInsufficientBalance
	}

	var bookingRef pgtype.UUID
	if bookingID != nil {
		bookingRef = pgtype.UUID{Bytes: [16]byte(*bookingID), Valid: true}
	}
	_, err := q.Exec(ctx, `
		INSERT INTO ledger_transactions (id, account_id, booking_id, amount, kind)
		VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)`,
		uuid.New(), from, bookingRef, -amount, string(debitKind),
		uuid.New(), to, bookingRef, amount, string(creditKind),
	)
	if err != nil {
		return fmt.Errorf("ledger: insert entries: %w", err)
	}

	if _, err := q.Exec(ctx, `UPDATE accounts SET credits = credits - $1 WHERE id = $2`, amount, from); err != nil {
		return fmt.Errorf("ledger: debit balance: %w", err)
	}
	if _, err := q.Exec(ctx, `UPDATE accounts SET credits = credits + $1 WHERE id = $2`, amount, to); err != nil {
		return fmt.Errorf("ledger: credit balance: %w", err)
	}
	return nil
}

// RecordGrant writes a single signed entry with no counterparty, used for the
// onboarding credit grant. The account row carries the granted balance; this
// keeps the audit trail complete.
func RecordGrant(ctx context.Context, q Executor, accountID uuid.UUID, amount int64) error {
	_, err := q.Exec(ctx, `
		INSERT INTO ledger_transactions (id, account_id, amount, kind)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), accountID, amount, string(KindOnboardingGrant),
	)
	if err != nil {
		return fmt.Errorf("ledger: record grant: %w", err)
	}
	return nil
}
