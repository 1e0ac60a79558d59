package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/identity"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

// Handler handles HTTP requests for practitioner availability.
type Handler struct {
	repo     Repository
	accounts accounts.Repository
	logger   *logging.Logger
}

// NewHandler creates a new availability handler.
func NewHandler(repo Repository, ar accounts.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, accounts: ar, logger: logger}
}

type setWindowRequest struct {
	DailyStart TimeOfDay `json:"daily_start"`
	DailyEnd   TimeOfDay `json:"daily_end"`
}

// Set handles PUT /availability requests. Only the practitioner themselves can
// publish a window; bookings made under the previous window are untouched.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "only practitioners set availability", http.StatusForbidden)
		return
	}

	var req setWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	window, err := h.repo.SetWindow(r.Context(), accountID, req.DailyStart, req.DailyEnd)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("failed to set availability", "error", err, "practitioner_id", accountID)
		http.Error(w, "failed to set availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability window set",
		"practitioner_id", accountID,
		"daily_start", window.DailyStart.String(),
		"daily_end", window.DailyEnd.String())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(window)
}

// WindowsResponse is the response for the practitioner's window history.
type WindowsResponse struct {
	Windows []*Window `json:"windows"`
	Count   int       `json:"count"`
}

// List handles GET /availability requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}

	windows, err := h.repo.ListByPractitioner(r.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to list availability", "error", err, "practitioner_id", accountID)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(WindowsResponse{Windows: windows, Count: len(windows)})
}
