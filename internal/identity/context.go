package identity

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const accountKey ctxKey = "medimeet.account_id"

// WithAccountID stores the authenticated account id in context.
func WithAccountID(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, accountKey, accountID)
}

// AccountIDFromContext extracts the authenticated account id if present.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(accountKey)
	if val == nil {
		return uuid.Nil, false
	}
	accountID, ok := val.(uuid.UUID)
	return accountID, ok && accountID != uuid.Nil
}
