package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/identity"
	"github.com/medimeet/telehealth-platform/internal/ledger"
	"github.com/medimeet/telehealth-platform/internal/notify"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

// Handler handles HTTP requests for slots and bookings.
type Handler struct {
	service  *Service
	accounts accounts.Repository
	notifier *notify.Service
	logger   *logging.Logger
}

// NewHandler creates a new scheduling handler. notifier may be nil.
func NewHandler(service *Service, ar accounts.Repository, notifier *notify.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, accounts: ar, notifier: notifier, logger: logger}
}

// writeError maps the scheduler's typed errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidSlot):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrTooEarly):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrSessionIssuance):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("scheduling request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// SlotsResponse is the slot listing payload.
type SlotsResponse struct {
	Days []DaySchedule `json:"days"`
}

// ListSlots handles GET /practitioners/{practitionerID}/slots requests.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	practitionerID, err := uuid.Parse(chi.URLParam(r, "practitionerID"))
	if err != nil {
		http.Error(w, "invalid practitioner id", http.StatusBadRequest)
		return
	}

	days, err := h.service.ListSlots(r.Context(), practitionerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SlotsResponse{Days: days})
}

type reserveRequest struct {
	PractitionerID uuid.UUID `json:"practitioner_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Description    string    `json:"description"`
}

// Reserve handles POST /bookings requests.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	clientID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.service.Reserve(r.Context(), ReserveRequest{
		ClientID:       clientID,
		PractitionerID: req.PractitionerID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Description:    req.Description,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.emailParties(r, booking, true)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(booking)
}

// BookingsResponse is the booking listing payload.
type BookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
	Count    int        `json:"count"`
}

// MyBookings handles GET /bookings requests. Clients see their own booking
// history; practitioners see their upcoming confirmed sessions.
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
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

	var bookings []*Booking
	if account.Role == accounts.RolePractitioner {
		bookings, err = h.service.ListUpcomingByPractitioner(r.Context(), accountID)
	} else {
		bookings, err = h.service.ListByClient(r.Context(), accountID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BookingsResponse{Bookings: bookings, Count: len(bookings)})
}

// Cancel handles POST /bookings/{bookingID}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	booking, err := h.service.Cancel(r.Context(), accountID, bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.emailParties(r, booking, false)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// Complete handles POST /bookings/{bookingID}/complete requests.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	booking, err := h.service.MarkCompleted(r.Context(), accountID, bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// Notes handles POST /bookings/{bookingID}/notes requests.
func (h *Handler) Notes(w http.ResponseWriter, r *http.Request) {
	accountID, ok := identity.AccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing account identity", http.StatusUnauthorized)
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.service.AddNotes(r.Context(), accountID, bookingID, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// emailParties sends lifecycle emails without blocking or failing the request.
func (h *Handler) emailParties(r *http.Request, booking *Booking, confirmed bool) {
	if h.notifier == nil {
		return
	}
	client, err := h.accounts.GetByID(r.Context(), booking.ClientID)
	if err != nil {
		h.logger.Error("email skipped: client lookup failed", "error", err, "booking_id", booking.ID)
		return
	}
	practitioner, err := h.accounts.GetByID(r.Context(), booking.PractitionerID)
	if err != nil {
		h.logger.Error("email skipped: practitioner lookup failed", "error", err, "booking_id", booking.ID)
		return
	}
	details := notify.BookingDetails{
		Client:       client,
		Practitioner: practitioner,
		StartTime:    booking.StartTime,
		EndTime:      booking.EndTime,
	}
	if confirmed {
		h.notifier.BookingConfirmed(r.Context(), details)
	} else {
		h.notifier.BookingCancelled(r.Context(), details)
	}
}
