package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/ledger"
)

// Tx is the scheduler's unit of work. Every method sees state as of the
// transaction, including writes buffered earlier in the same transaction.
type Tx interface {
	// ListActive returns the practitioner's PENDING and CONFIRMED bookings.
	ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error)
	// GetBooking fetches a booking by id, or ErrNotFound.
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	// CreateBooking persists a new booking.
	CreateBooking(ctx context.Context, b *Booking) error
	// UpdateBooking persists status and notes changes.
	UpdateBooking(ctx context.Context, b *Booking) error
	// Transfer moves credits between the two accounts and appends the signed
	// ledger pair, failing with ledger.ErrInsufficientBalance when the source
	// balance cannot cover the amount.
	Transfer(ctx context.Context, from, to uuid.UUID, amount int64, bookingID *uuid.UUID, debitKind, creditKind ledger.Kind) error
}

// Store persists bookings and runs reservation units of work.
//
// InTx executes fn under mutual exclusion for the given practitioner: no other
// reservation or cancellation for that practitioner observes intermediate
// state, and any error from fn rolls back every buffered effect. Reads outside
// InTx are advisory point-in-time snapshots; slot listings built from them
// must be re-checked inside the transaction before commit.
type Store interface {
	InTx(ctx context.Context, practitionerID uuid.UUID, fn func(tx Tx) error) error

	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Booking, error)
	ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*Booking, error)
}
