package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/api/router"
	"github.com/medimeet/telehealth-platform/internal/availability"
	appconfig "github.com/medimeet/telehealth-platform/internal/config"
	"github.com/medimeet/telehealth-platform/internal/dashboard"
	"github.com/medimeet/telehealth-platform/internal/ledger"
	"github.com/medimeet/telehealth-platform/internal/notify"
	"github.com/medimeet/telehealth-platform/internal/observability/metrics"
	"github.com/medimeet/telehealth-platform/internal/scheduling"
	"github.com/medimeet/telehealth-platform/internal/sessions"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	var (
		accountsRepo accounts.Repository
		ledgerRepo   ledger.Repository
		availRepo    availability.Repository
		store        scheduling.Store
		dashRepo     dashboard.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			logger.Error("database unreachable", "error", err)
			os.Exit(1)
		}

		sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open sql database", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()

		accountsRepo = accounts.NewPostgresRepository(pool)
		ledgerRepo = ledger.NewPostgresRepository(pool)
		availRepo = availability.NewPostgresRepository(pool)
		store = scheduling.NewPostgresStore(pool)
		dashRepo = dashboard.NewSQLRepository(sqlDB)
		logger.Info("using postgres storage")
	} else {
		// Dev mode: everything in memory.
		memLedger := ledger.NewInMemoryRepository()
		memAccounts := accounts.NewInMemoryRepository(memLedger)
		memStore := scheduling.NewInMemoryStore(memAccounts, memLedger)
		accountsRepo = memAccounts
		ledgerRepo = memLedger
		availRepo = availability.NewInMemoryRepository()
		store = memStore
		dashRepo = dashboard.NewMemoryRepository(memStore, memLedger)
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	var slotCache *scheduling.SlotCache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		slotCache = scheduling.NewSlotCache(redis.NewClient(opts), cfg.SlotCacheTTL)
		logger.Info("slot listing cache enabled", "ttl", cfg.SlotCacheTTL)
	}

	var issuer sessions.Issuer
	if cfg.SessionIssuerFake || cfg.SessionIssuerURL == "" {
		issuer = sessions.NewStaticIssuer()
		logger.Warn("using locally generated session tokens")
	} else {
		issuer = sessions.NewHTTPIssuer(cfg.SessionIssuerURL, cfg.SessionIssuerAPIKey, logger.Component("sessions"))
	}

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger.Component("notify"))
	var notifier *notify.Service
	if emailSender != nil {
		notifier = notify.NewService(emailSender, logger.Component("notify"))
	}

	schedulingService := scheduling.NewService(scheduling.ServiceConfig{
		Store:        store,
		Accounts:     accountsRepo,
		Availability: availRepo,
		Issuer:       issuer,
		Cache:        slotCache,
		Metrics:      bookingMetrics,
		Logger:       logger.Component("scheduling"),
		BookingCost:  cfg.BookingCostCredits,
		SlotLength:   cfg.SlotLength(),
		HorizonDays:  cfg.ScheduleHorizonDays,
	})

	var corsOrigins []string
	if cfg.CORSAllowedOrigins != "" {
		for _, o := range strings.Split(cfg.CORSAllowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	r := router.New(&router.Config{
		Logger:              logger,
		AccountsHandler:     accounts.NewHandler(accountsRepo, ledgerRepo, cfg.SignupCreditGrant, logger.Component("accounts")),
		AvailabilityHandler: availability.NewHandler(availRepo, accountsRepo, logger.Component("availability")),
		SchedulingHandler:   scheduling.NewHandler(schedulingService, accountsRepo, notifier, logger.Component("scheduling")),
		DashboardHandler:    dashboard.NewHandler(dashRepo, accountsRepo, logger.Component("dashboard")),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminJWTSecret:      cfg.AdminJWTSecret,
		CORSAllowedOrigins:  corsOrigins,
		RateLimitPerSecond:  cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
