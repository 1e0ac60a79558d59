package scheduling

import "errors"

var (
	// ErrNotFound indicates the booking, client, or verified practitioner
	// does not exist.
	ErrNotFound = errors.New("scheduling: not found")

	// ErrForbidden indicates the caller is neither party to the booking.
	ErrForbidden = errors.New("scheduling: caller is not a party to this booking")

	// ErrInvalidSlot indicates the requested interval is inverted or does not
	// match the configured slot length.
	ErrInvalidSlot = errors.New("scheduling: invalid slot interval")

	// ErrSlotUnavailable indicates the slot overlaps an active booking. This
	// is a recoverable race outcome; callers should re-list slots.
	ErrSlotUnavailable = errors.New("scheduling: slot is no longer available")

	// ErrSessionIssuance indicates the external session token issuer failed.
	// The reservation is aborted with no partial state.
	ErrSessionIssuance = errors.New("scheduling: session token issuance failed")

	// ErrInvalidState indicates the booking is already in a terminal state.
	ErrInvalidState = errors.New("scheduling: booking is in a terminal state")

	// ErrTooEarly indicates completion was requested before the booking's end.
	ErrTooEarly = errors.New("scheduling: booking has not ended yet")
)
