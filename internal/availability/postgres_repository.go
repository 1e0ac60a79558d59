package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// db is the subset of pgxpool used here. pgxmock satisfies it.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores availability windows in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(d db) *PostgresRepository {
	return &PostgresRepository{db: d}
}

// SetWindow marks the prior ACTIVE window SUPERSEDED and inserts the new one
// in a single transaction. History rows are kept, never deleted.
func (r *PostgresRepository) SetWindow(ctx context.Context, practitionerID uuid.UUID, start, end TimeOfDay) (*Window, error) {
	if start >= end {
		return nil, fmt.Errorf("%w: %s >= %s", ErrInvalidRange, start, end)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE availability_windows SET status = 'SUPERSEDED'
		WHERE practitioner_id = $1 AND status = 'ACTIVE'`, practitionerID); err != nil {
		return nil, fmt.Errorf("availability: supersede window: %w", err)
	}

	window := &Window{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		DailyStart:     start,
		DailyEnd:       end,
		Status:         WindowActive,
	}
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO availability_windows (id, practitioner_id, daily_start_min, daily_end_min, status)
		VALUES ($1, $2, $3, $4, 'ACTIVE')
		RETURNING created_at`,
		window.ID, practitionerID, start.Minutes(), end.Minutes(),
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("availability: insert window: %w", err)
	}
	window.CreatedAt = createdAt

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("availability: commit: %w", err)
	}
	return window, nil
}

func scanWindow(row pgx.Row) (*Window, error) {
	var w Window
	var startMin, endMin int
	var status string
	if err := row.Scan(&w.ID, &w.PractitionerID, &startMin, &endMin, &status, &w.CreatedAt); err != nil {
		return nil, err
	}
	w.DailyStart = FromMinutes(startMin)
	w.DailyEnd = FromMinutes(endMin)
	w.Status = WindowStatus(status)
	return &w, nil
}

const windowColumns = `id, practitioner_id, daily_start_min, daily_end_min, status, created_at`

// GetActive returns the practitioner's ACTIVE window.
func (r *PostgresRepository) GetActive(ctx context.Context, practitionerID uuid.UUID) (*Window, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+windowColumns+` FROM availability_windows
		WHERE practitioner_id = $1 AND status = 'ACTIVE'`, practitionerID)
	window, err := scanWindow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNoActiveWindow
		}
		return nil, fmt.Errorf("availability: select active window: %w", err)
	}
	return window, nil
}

// ListByPractitioner returns all of the practitioner's windows, newest first.
func (r *PostgresRepository) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Window, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+windowColumns+` FROM availability_windows
		WHERE practitioner_id = $1
		ORDER BY created_at DESC`, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("availability: list windows: %w", err)
	}
	defer rows.Close()

	var out []*Window
	for rows.Next() {
		window, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("availability: scan window: %w", err)
		}
		out = append(out, window)
	}
	return out, rows.Err()
}
