package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/config"
	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/handler"
	"github.com/rakotomalala/compta-pme-go/internal/infra/cache"
	"github.com/rakotomalala/compta-pme-go/internal/infra/memstore"
	"github.com/rakotomalala/compta-pme-go/internal/infra/mongostore"
	"github.com/rakotomalala/compta-pme-go/internal/infra/observability"
	"github.com/rakotomalala/compta-pme-go/internal/infra/postgrest"
	"github.com/rakotomalala/compta-pme-go/internal/infra/resilience"
	"github.com/rakotomalala/compta-pme-go/internal/port"
	"github.com/rakotomalala/compta-pme-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Bool("auth_enabled", cfg.AdminPasswordHash != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "compta-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	summaryCache := cache.New[domain.PeriodSummary](cfg.CacheTTL)

	// --- Ledger store ---
	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init ledger store", zap.Error(err))
	}

	// --- Services ---
	ledgerSvc := service.NewLedgerService(store, summaryCache, metrics, logger)
	periodSvc := service.NewPeriodService(store, summaryCache, logger)
	authSvc := service.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTAccessTTL, logger)
	if authSvc.Enabled() {
		logger.Info("auth gate enabled", zap.String("admin_email", cfg.AdminEmail))
	} else {
		logger.Warn("auth gate disabled: ADMIN_PASSWORD_HASH not set")
	}

	// --- Router ---
	router := handler.NewRouter(ledgerSvc, periodSvc, authSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// buildStore selects the ledger store backend from STORE_BACKEND.
func buildStore(cfg *config.Config, logger *zap.Logger) (port.LedgerStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("using in-memory ledger store")
		return memstore.New(), nil

	case config.BackendPostgrest:
		if cfg.PostgrestURL == "" {
			return nil, fmt.Errorf("POSTGREST_URL is required for the postgrest backend")
		}
		logger.Info("using PostgREST ledger store", zap.String("url", cfg.PostgrestURL))
		client := postgrest.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.PostgrestURL,
			cfg.PostgrestAnonKey,
			cfg.PostgrestServiceKey,
			resilience.NewCircuitBreaker("postgrest"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			logger,
		)
		return postgrest.NewStore(client, cfg.PollInterval, logger), nil

	case config.BackendMongo:
		logger.Info("using MongoDB ledger store", zap.String("database", cfg.MongoDatabase))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return mongostore.New(db, cfg.PollInterval, logger), nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
