// Package dashboard aggregates a practitioner's activity counters. The reads
// are report-style aggregates served over database/sql rather than the pgx
// pool the transactional paths use.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Stats is the practitioner's aggregate view.
type Stats struct {
	UpcomingBookings  int   `json:"upcoming_bookings"`
	CompletedSessions int   `json:"completed_sessions"`
	CancelledBookings int   `json:"cancelled_bookings"`
	CreditsEarned     int64 `json:"credits_earned"`
}

// Repository computes dashboard stats.
type Repository interface {
	Stats(ctx context.Context, practitionerID uuid.UUID) (*Stats, error)
}

// SQLRepository reads aggregates from Postgres via database/sql.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository over an open database handle.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Stats counts the practitioner's bookings by lifecycle state and nets their
// earned credits from the ledger. Earned credits are booking credits minus
// cancellation reversals, so refunded sessions do not count.
func (r *SQLRepository) Stats(ctx context.Context, practitionerID uuid.UUID) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'CONFIRMED' AND end_time > now()),
			count(*) FILTER (WHERE status = 'COMPLETED'),
			count(*) FILTER (WHERE status = 'CANCELLED')
		FROM bookings
		WHERE practitioner_id = $1`, practitionerID,
	).Scan(&s.UpcomingBookings, &s.CompletedSessions, &s.CancelledBookings)
	if err != nil {
		return nil, fmt.Errorf("dashboard: booking counts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_transactions
		WHERE account_id = $1 AND kind IN ('BOOKING_CREDIT', 'CANCELLATION_REVERSAL')`, practitionerID,
	).Scan(&s.CreditsEarned)
	if err != nil {
		return nil, fmt.Errorf("dashboard: credits earned: %w", err)
	}
	return &s, nil
}
