// Package sessions issues the opaque video-session tokens attached to
// confirmed bookings. The transport behind the token is not this system's
// concern; the issuer is called once per reservation and any error aborts it.
package sessions

import (
	"context"
	"errors"
)

// ErrIssuance wraps every issuer failure.
var ErrIssuance = errors.New("sessions: token issuance failed")

// Issuer acquires one opaque session token.
type Issuer interface {
	CreateSession(ctx context.Context) (string, error)
}
