package accounts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/identity"
	"github.com/medimeet/telehealth-platform/internal/ledger"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

// Handler handles HTTP requests for accounts and practitioner discovery.
type Handler struct {
	repo        Repository
	ledger      ledger.Repository
	signupGrant int64
	logger      *logging.Logger
}

// NewHandler creates a new accounts handler.
func NewHandler(repo Repository, lr ledger.Repository, signupGrant int64, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:        repo,
		ledger:      lr,
		signupGrant: signupGrant,
		logger:      logger,
	}
}

// Onboard handles POST /onboarding/role requests.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = accountID
	req.StartingCredits = h.signupGrant

	account, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("onboarding failed", "error", err, "account_id", accountID)
		switch {
		case errors.Is(err, ErrAlreadyOnboarded):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	h.logger.Info("account onboarded", "account_id", account.ID, "role", account.Role)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

// Me handles GET /accounts/me requests.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}

	account, err := h.repo.GetByID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load account", "error", err, "account_id", accountID)
		http.Error(w, "failed to load account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// TransactionsResponse is the response for the ledger audit listing.
type TransactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

// MyTransactions handles GET /accounts/me/transactions requests.
func (h *Handler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}

	txs, err := h.ledger.ListByAccount(r.Context(), accountID, 50)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err, "account_id", accountID)
		http.Error(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TransactionsResponse{Transactions: txs, Count: len(txs)})
}

// ListPractitionersResponse is the response for practitioner discovery.
type ListPractitionersResponse struct {
	Practitioners []*Account `json:"practitioners"`
	Count         int        `json:"count"`
}

// ListPractitioners handles GET /practitioners requests.
func (h *Handler) ListPractitioners(w http.ResponseWriter, r *http.Request) {
	speciality := r.URL.Query().Get("speciality")

	practitioners, err := h.repo.ListVerifiedPractitioners(r.Context(), speciality)
	if err != nil {
		h.logger.Error("failed to list practitioners", "error", err)
		http.Error(w, "failed to list practitioners", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListPractitionersResponse{Practitioners: practitioners, Count: len(practitioners)})
}

// GetPractitioner handles GET /practitioners/{id} requests.
func (h *Handler) GetPractitioner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		http.Error(w, "invalid practitioner id", http.StatusBadRequest)
		return
	}

	account, err := h.repo.GetVerifiedPractitioner(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load practitioner", "error", err, "practitioner_id", id)
		http.Error(w, "failed to load practitioner", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

type verifyRequest struct {
	Status VerificationStatus `json:"status"`
}

// Verify handles POST /admin/practitioners/{id}/verify requests.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		http.Error(w, "invalid practitioner id", http.StatusBadRequest)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.repo.SetVerification(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidVerification):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("verification update failed", "error", err, "practitioner_id", id)
			http.Error(w, "verification update failed", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("practitioner verification updated", "practitioner_id", id, "status", account.VerificationStatus)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}
