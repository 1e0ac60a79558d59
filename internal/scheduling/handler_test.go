package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/identity"
	"github.com/medimeet/telehealth-platform/internal/notify"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	notifier := notify.NewService(notify.NewStubEmailSender(logging.Default()), logging.Default())
	return NewHandler(f.service, f.accounts, notifier, logging.Default()), f
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestReserveHandler(t *testing.T) {
	handler, f := newTestHandler(t)
	practitioner := f.newPractitioner(t)
	client := f.newClient(t, 10)
	f.setWindow(t, practitioner, "09:00", "11:00")
	start, end := f.slotAt(9, 0)

	body, _ := json.Marshal(reserveRequest{
		PractitionerID: practitioner,
		StartTime:      start,
		EndTime:        end,
		Description:    "first visit",
	})
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req = req.WithContext(identity.WithAccountID(req.Context(), client))
	w := httptest.NewRecorder()

	handler.Reserve(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var booking Booking
	if err := json.NewDecoder(w.Body).Decode(&booking); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if booking.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", booking.Status)
	}
	if booking.SessionToken == "" {
		t.Error("expected a session token on the booking")
	}
}

func TestReserveHandlerStatusMapping(t *testing.T) {
	handler, f := newTestHandler(t)
	practitioner := f.newPractitioner(t)
	rich := f.newClient(t, 10)
	broke := f.newClient(t, 1)
	f.setWindow(t, practitioner, "09:00", "11:00")
	start, end := f.slotAt(9, 0)

	reserve := func(clientID uuid.UUID, req reserveRequest) *httptest.ResponseRecorder {
		body, _ := json.Marshal(req)
		r := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
		r = r.WithContext(identity.WithAccountID(r.Context(), clientID))
		w := httptest.NewRecorder()
		handler.Reserve(w, r)
		return w
	}

	if w := reserve(broke, reserveRequest{PractitionerID: practitioner, StartTime: start, EndTime: end}); w.Code != http.StatusPaymentRequired {
		t.Errorf("insufficient balance: expected %d, got %d", http.StatusPaymentRequired, w.Code)
	}
	if w := reserve(rich, reserveRequest{PractitionerID: uuid.New(), StartTime: start, EndTime: end}); w.Code != http.StatusNotFound {
		t.Errorf("unknown practitioner: expected %d, got %d", http.StatusNotFound, w.Code)
	}
	if w := reserve(rich, reserveRequest{PractitionerID: practitioner, StartTime: start, EndTime: start.Add(time.Hour)}); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("wrong slot length: expected %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}

	if w := reserve(rich, reserveRequest{PractitionerID: practitioner, StartTime: start, EndTime: end}); w.Code != http.StatusCreated {
		t.Fatalf("expected the valid reservation to succeed, got %d", w.Code)
	}
	if w := reserve(rich, reserveRequest{PractitionerID: practitioner, StartTime: start, EndTime: end}); w.Code != http.StatusConflict {
		t.Errorf("taken slot: expected %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestCancelHandler(t *testing.T) {
	handler, f := newTestHandler(t)
	practitioner := f.newPractitioner(t)
	client := f.newClient(t, 10)
	f.setWindow(t, practitioner, "09:00", "11:00")
	start, end := f.slotAt(9, 0)

	booking, err := f.service.Reserve(context.Background(), ReserveRequest{
		ClientID: client, PractitionerID: practitioner, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/bookings/"+booking.ID.String()+"/cancel", nil)
	req = req.WithContext(identity.WithAccountID(req.Context(), client))
	req = withURLParam(req, "bookingID", booking.ID.String())
	w := httptest.NewRecorder()

	handler.Cancel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if f.balance(t, client) != 10 {
		t.Errorf("expected full refund, balance is %d", f.balance(t, client))
	}

	// Cancelling again hits the terminal-state guard.
	w = httptest.NewRecorder()
	handler.Cancel(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("repeat cancel: expected %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestCompleteHandlerTooEarly(t *testing.T) {
	handler, f := newTestHandler(t)
	practitioner := f.newPractitioner(t)
	client := f.newClient(t, 10)
	f.setWindow(t, practitioner, "09:00", "11:00")
	start, end := f.slotAt(9, 0)

	booking, err := f.service.Reserve(context.Background(), ReserveRequest{
		ClientID: client, PractitionerID: practitioner, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/bookings/"+booking.ID.String()+"/complete", nil)
	req = req.WithContext(identity.WithAccountID(req.Context(), practitioner))
	req = withURLParam(req, "bookingID", booking.ID.String())
	w := httptest.NewRecorder()

	handler.Complete(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected %d before the session ends, got %d", http.StatusConflict, w.Code)
	}

	f.now = end.Add(time.Minute)
	w = httptest.NewRecorder()
	handler.Complete(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d after end time, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestListSlotsHandler(t *testing.T) {
	handler, f := newTestHandler(t)
	practitioner := f.newPractitioner(t)
	f.setWindow(t, practitioner, "09:00", "10:00")

	req := httptest.NewRequest(http.MethodGet, "/practitioners/"+practitioner.String()+"/slots", nil)
	req = withURLParam(req, "practitionerID", practitioner.String())
	w := httptest.NewRecorder()

	handler.ListSlots(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp SlotsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Days) != 4 {
		t.Fatalf("expected a 4-day horizon, got %d days", len(resp.Days))
	}

	req = httptest.NewRequest(http.MethodGet, "/practitioners/nope/slots", nil)
	req = withURLParam(req, "practitionerID", "nope")
	w = httptest.NewRecorder()
	handler.ListSlots(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id: expected %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestMyBookingsHandlerByRole(t *testing.T) {
	handler, f := newTestHandler(t)
	practitioner := f.newPractitioner(t)
	client := f.newClient(t, 10)
	f.setWindow(t, practitioner, "09:00", "11:00")
	start, end := f.slotAt(9, 0)

	if _, err := f.service.Reserve(context.Background(), ReserveRequest{
		ClientID: client, PractitionerID: practitioner, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	for _, accountID := range []uuid.UUID{client, practitioner} {
		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req = req.WithContext(identity.WithAccountID(req.Context(), accountID))
		w := httptest.NewRecorder()

		handler.MyBookings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		var resp BookingsResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("expected 1 booking for %s, got %d", accountID, resp.Count)
		}
	}
}
