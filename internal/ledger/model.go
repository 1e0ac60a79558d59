package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind labels a ledger transaction.
type Kind string

const (
	KindBookingDebit         Kind = "BOOKING_DEBIT"
	KindBookingCredit        Kind = "BOOKING_CREDIT"
	KindCancellationRefund   Kind = "CANCELLATION_REFUND"
	KindCancellationReversal Kind = "CANCELLATION_REVERSAL"
	KindOnboardingGrant      Kind = "ONBOARDING_GRANT"
)

// Transaction is one signed entry in the append-only audit trail. The two
// entries of a transfer always sum to zero.
type Transaction struct {
	ID        uuid.UUID  `json:"id"`
	AccountID uuid.UUID  `json:"account_id"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	Amount    int64      `json:"amount"`
	Kind      Kind       `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
}
