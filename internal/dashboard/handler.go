package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/identity"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

// Handler serves the practitioner dashboard.
type Handler struct {
	repo     Repository
	accounts accounts.Repository
	logger   *logging.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(repo Repository, ar accounts.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, accounts: ar, logger: logger}
}

// Get handles GET /dashboard requests. Practitioners only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}

	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load account", "error", err, "account_id", accountID)
		http.Error(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	if account.Role != accounts.RolePractitioner {
		http.Error(w, "dashboard is for practitioners", http.StatusForbidden)
		return
	}

	stats, err := h.repo.Stats(r.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to load dashboard", "error", err, "practitioner_id", accountID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
