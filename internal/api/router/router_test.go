package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/availability"
	"github.com/medimeet/telehealth-platform/internal/dashboard"
	"github.com/medimeet/telehealth-platform/internal/ledger"
	"github.com/medimeet/telehealth-platform/internal/scheduling"
	"github.com/medimeet/telehealth-platform/internal/sessions"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

const adminSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.Default()
	lr := ledger.NewInMemoryRepository()
	ar := accounts.NewInMemoryRepository(lr)
	avail := availability.NewInMemoryRepository()
	store := scheduling.NewInMemoryStore(ar, lr)

	svc := scheduling.NewService(scheduling.ServiceConfig{
		Store:        store,
		Accounts:     ar,
		Availability: avail,
		Issuer:       sessions.NewStaticIssuer(),
		BookingCost:  2,
		SlotLength:   30 * time.Minute,
		HorizonDays:  4,
	})

	return New(&Config{
		Logger:              logger,
		AccountsHandler:     accounts.NewHandler(ar, lr, 10, logger),
		AvailabilityHandler: availability.NewHandler(avail, ar, logger),
		SchedulingHandler:   scheduling.NewHandler(svc, ar, nil, logger),
		DashboardHandler:    dashboard.NewHandler(dashboard.NewMemoryRepository(store, lr), ar, logger),
		AdminJWTSecret:      adminSecret,
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(adminSecret))
	if err != nil {
		t.Fatalf("sign admin token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path string, accountID *uuid.UUID, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if accountID != nil {
		req.Header.Set(AccountIDHeader, accountID.String())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouterEndToEnd(t *testing.T) {
	h := newTestRouter(t)
	clientID := uuid.New()
	practitionerID := uuid.New()

	// Onboard both parties.
	w := doJSON(t, h, http.MethodPost, "/onboarding/role", &clientID, map[string]any{
		"email": "pat@example.com", "name": "Pat", "role": "CLIENT",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("client onboarding: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPost, "/onboarding/role", &practitionerID, map[string]any{
		"email": "doc@example.com", "name": "Dr. Doc", "role": "PRACTITIONER",
		"speciality": "Dermatology", "experience_years": 7,
		"credential_url": "https://credentials.example/doc", "description": "derm",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("practitioner onboarding: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Unverified practitioners are not discoverable.
	w = doJSON(t, h, http.MethodGet, "/practitioners", nil, nil, nil)
	if w.Code != http.StatusOK || bytes.Contains(w.Body.Bytes(), []byte("Dr. Doc")) {
		t.Fatalf("expected pending practitioner hidden, got %d: %s", w.Code, w.Body.String())
	}

	// Admin verification requires the JWT.
	verifyPath := "/admin/practitioners/" + practitionerID.String() + "/verify"
	w = doJSON(t, h, http.MethodPost, verifyPath, nil, map[string]string{"status": "VERIFIED"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin token, got %d", w.Code)
	}
	w = doJSON(t, h, http.MethodPost, verifyPath, nil, map[string]string{"status": "VERIFIED"},
		map[string]string{"Authorization": "Bearer " + adminToken(t)})
	if w.Code != http.StatusOK {
		t.Fatalf("verification: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Practitioner publishes a window.
	w = doJSON(t, h, http.MethodPut, "/availability", &practitionerID, map[string]string{
		"daily_start": "09:00", "daily_end": "17:00",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("set availability: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Client lists slots and books the first one.
	w = doJSON(t, h, http.MethodGet, "/practitioners/"+practitionerID.String()+"/slots", nil, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list slots: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var slots scheduling.SlotsResponse
	if err := json.NewDecoder(w.Body).Decode(&slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	// Book the last slot of the horizon so the clock cannot catch up to it
	// while the test runs.
	var start, end time.Time
	for _, day := range slots.Days {
		if n := len(day.Slots); n > 0 {
			start, end = day.Slots[n-1].Start, day.Slots[n-1].End
		}
	}
	if start.IsZero() {
		t.Fatal("expected at least one bookable slot")
	}

	w = doJSON(t, h, http.MethodPost, "/bookings", &clientID, map[string]any{
		"practitioner_id": practitionerID,
		"start_time":      start,
		"end_time":        end,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("reserve: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var booking scheduling.Booking
	if err := json.NewDecoder(w.Body).Decode(&booking); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	// Balance moved and is visible on the profile.
	w = doJSON(t, h, http.MethodGet, "/accounts/me", &clientID, nil, nil)
	var me accounts.Account
	if err := json.NewDecoder(w.Body).Decode(&me); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if me.Credits != 8 {
		t.Fatalf("expected 8 credits after booking, got %d", me.Credits)
	}

	// Practitioner sees the dashboard.
	w = doJSON(t, h, http.MethodGet, "/dashboard", &practitionerID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Cancel refunds in full.
	w = doJSON(t, h, http.MethodPost, "/bookings/"+booking.ID.String()+"/cancel", &clientID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodGet, "/accounts/me/transactions", &clientID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("transactions: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var txs accounts.TransactionsResponse
	if err := json.NewDecoder(w.Body).Decode(&txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if txs.Count != 3 { // grant, debit, refund
		t.Fatalf("expected 3 ledger entries, got %d", txs.Count)
	}
}

func TestRouterRequiresIdentity(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/bookings", nil, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity header, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(AccountIDHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed identity, got %d", rec.Code)
	}
}

func TestRouterHealth(t *testing.T) {
	h := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/health", nil, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
