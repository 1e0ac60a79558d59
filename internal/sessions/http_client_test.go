package sessions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medimeet/telehealth-platform/pkg/logging"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"session_id": "sess-abc123"}`))
	}))
	defer srv.Close()

	issuer := NewHTTPIssuer(srv.URL, "test-key", logging.Default())
	token, err := issuer.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if token != "sess-abc123" {
		t.Fatalf("expected sess-abc123, got %q", token)
	}
}

func TestCreateSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	issuer := NewHTTPIssuer(srv.URL, "test-key", logging.Default())
	_, err := issuer.CreateSession(context.Background())
	if !errors.Is(err, ErrIssuance) {
		t.Fatalf("expected ErrIssuance, got %v", err)
	}
}

func TestCreateSessionEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	issuer := NewHTTPIssuer(srv.URL, "test-key", logging.Default())
	if _, err := issuer.CreateSession(context.Background()); !errors.Is(err, ErrIssuance) {
		t.Fatalf("expected ErrIssuance for empty token, got %v", err)
	}
}

func TestStaticIssuer(t *testing.T) {
	issuer := NewStaticIssuer()
	a, err := issuer.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	b, _ := issuer.CreateSession(context.Background())
	if !strings.HasPrefix(a, "local-") || a == b {
		t.Fatalf("expected distinct local tokens, got %q and %q", a, b)
	}
}
