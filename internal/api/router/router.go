package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/availability"
	"github.com/medimeet/telehealth-platform/internal/dashboard"
	httpmiddleware "github.com/medimeet/telehealth-platform/internal/http/middleware"
	"github.com/medimeet/telehealth-platform/internal/scheduling"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	AccountsHandler     *accounts.Handler
	AvailabilityHandler *availability.Handler
	SchedulingHandler   *scheduling.Handler
	DashboardHandler    *dashboard.Handler

	MetricsHandler     http.Handler
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Get("/practitioners", cfg.AccountsHandler.ListPractitioners)
		public.Get("/practitioners/{practitionerID}", cfg.AccountsHandler.GetPractitioner)
		public.Get("/practitioners/{practitionerID}/slots", cfg.SchedulingHandler.ListSlots)
	})

	// Caller-authenticated endpoints. The identity provider fronting this
	// service vouches for the account id header.
	r.Group(func(private chi.Router) {
		private.Use(RequireAccount)

		private.Post("/onboarding/role", cfg.AccountsHandler.Onboard)
		private.Get("/accounts/me", cfg.AccountsHandler.Me)
		private.Get("/accounts/me/transactions", cfg.AccountsHandler.MyTransactions)

		private.Put("/availability", cfg.AvailabilityHandler.Set)
		private.Get("/availability", cfg.AvailabilityHandler.List)

		private.Post("/bookings", cfg.SchedulingHandler.Reserve)
		private.Get("/bookings", cfg.SchedulingHandler.MyBookings)
		private.Post("/bookings/{bookingID}/cancel", cfg.SchedulingHandler.Cancel)
		private.Post("/bookings/{bookingID}/complete", cfg.SchedulingHandler.Complete)
		private.Post("/bookings/{bookingID}/notes", cfg.SchedulingHandler.Notes)

		if cfg.DashboardHandler != nil {
			private.Get("/dashboard", cfg.DashboardHandler.Get)
		}
	})

	// Admin endpoints, guarded by the operations JWT.
	if cfg.AdminJWTSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Post("/practitioners/{practitionerID}/verify", cfg.AccountsHandler.Verify)
		})
	}

	return r
}
