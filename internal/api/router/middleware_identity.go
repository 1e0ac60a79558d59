package router

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/identity"
)

// AccountIDHeader carries the authenticated account id set by the identity
// provider fronting this service.
const AccountIDHeader = "X-Account-ID"

// RequireAccount rejects requests without a valid account id header and puts
// the id on the request context for handlers.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(AccountIDHeader)
		if raw == "" {
			http.Error(w, "missing account identity", http.StatusUnauthorized)
			return
		}
		accountID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid account identity", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithAccountID(r.Context(), accountID)))
	})
}
