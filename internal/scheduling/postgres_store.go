package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medimeet/telehealth-platform/internal/ledger"
)

// db is the subset of pgxpool used here. pgxmock satisfies it.
type db interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists bookings in the relational database.
type PostgresStore struct {
	db db
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(d db) *PostgresStore {
	return &PostgresStore{db: d}
}

const bookingColumns = `id, client_id, practitioner_id, start_time, end_time, status, description, notes, session_token, created_at, updated_at`

// InTx runs fn in a serializable transaction holding a transaction-scoped
// advisory lock on the practitioner id, so concurrent reservations for the
// same practitioner queue rather than race. The lock releases on commit or
// rollback.
func (s *PostgresStore) InTx(ctx context.Context, practitionerID uuid.UUID, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("scheduling: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, practitionerID); err != nil {
		return fmt.Errorf("scheduling: acquire practitioner lock: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error) {
	return listActive(ctx, t.tx, practitionerID)
}

func (t *pgTx) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return getBooking(ctx, t.tx, id)
}

func (t *pgTx) CreateBooking(ctx context.Context, b *Booking) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO bookings (id, client_id, practitioner_id, start_time, end_time, status, description, notes, session_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		b.ID, b.ClientID, b.PractitionerID, b.StartTime, b.EndTime,
		string(b.Status), b.Description, b.Notes, b.SessionToken,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("scheduling: insert booking: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateBooking(ctx context.Context, b *Booking) error {
	err := t.tx.QueryRow(ctx, `
		UPDATE bookings SET status = $2, notes = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, string(b.Status), b.Notes,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("scheduling: update booking: %w", err)
	}
	return nil
}

func (t *pgTx) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, bookingID *uuid.UUID, debitKind, creditKind ledger.Kind) error {
	return ledger.ApplyTransfer(ctx, t.tx, from, to, amount, bookingID, debitKind, creditKind)
}

// queries shared between the transactional and pool-backed paths.

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var status string
	if err := row.Scan(&b.ID, &b.ClientID, &b.PractitionerID, &b.StartTime, &b.EndTime,
		&status, &b.Description, &b.Notes, &b.SessionToken, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = BookingStatus(status)
	return &b, nil
}

func getBooking(ctx context.Context, q rowQuerier, id uuid.UUID) (*Booking, error) {
	row := q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scheduling: select booking: %w", err)
	}
	return b, nil
}

func listActive(ctx context.Context, q rowQuerier, practitionerID uuid.UUID) ([]*Booking, error) {
	rows, err := q.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE practitioner_id = $1 AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_time`, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list active bookings: %w", err)
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	defer rows.Close()
	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scheduling: scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBooking fetches a booking outside any transaction.
func (s *PostgresStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return getBooking(ctx, s.db, id)
}

// ListActive returns the practitioner's PENDING and CONFIRMED bookings. This
// read is advisory; InTx re-checks before commit.
func (s *PostgresStore) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error) {
	return listActive(ctx, s.db, practitionerID)
}

// ListByClient returns the client's bookings, newest first.
func (s *PostgresStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE client_id = $1
		ORDER BY start_time DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list client bookings: %w", err)
	}
	return collectBookings(rows)
}

// ListUpcomingByPractitioner returns CONFIRMED bookings ending after from,
// ordered by start time.
func (s *PostgresStore) ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE practitioner_id = $1 AND status = 'CONFIRMED' AND end_time > $2
		ORDER BY start_time`, practitionerID, from)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list upcoming bookings: %w", err)
	}
	return collectBookings(rows)
}
