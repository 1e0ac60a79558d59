package sessions

import (
	"context"

	"github.com/google/uuid"
)

// StaticIssuer mints locally generated tokens. Used in dev mode and tests
// where no session provider is reachable.
type StaticIssuer struct{}

// NewStaticIssuer creates a StaticIssuer.
func NewStaticIssuer() *StaticIssuer {
	return &StaticIssuer{}
}

// CreateSession returns a fresh locally generated token.
func (s *StaticIssuer) CreateSession(ctx context.Context) (string, error) {
	return "local-" + uuid.NewString(), nil
}
