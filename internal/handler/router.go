package handler

import (
	"net/http"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/infra/observability"
	"github.com/rakotomalala/compta-pme-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(ledgerSvc *service.LedgerService, periodSvc *service.PeriodService, authSvc *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(periodSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/login", authLoginHandler(authSvc, logger))

		// Everything else sits behind the JWT gate (a no-op when no admin
		// credentials are configured).
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			// Periods & settings
			r.Get("/periods", listPeriodsHandler(periodSvc, logger))
			r.Post("/periods", createPeriodHandler(periodSvc, logger))
			r.Get("/periods/current", currentPeriodHandler(periodSvc, logger))
			r.Get("/periods/{periodId}", getPeriodHandler(periodSvc, logger))
			r.Post("/periods/{periodId}/close", closePeriodHandler(periodSvc, logger))
			r.Put("/settings/current-period", setCurrentPeriodHandler(periodSvc, logger))

			// Transactions
			r.Get("/periods/{periodId}/transactions", listTransactionsHandler(ledgerSvc, logger))
			r.Post("/periods/{periodId}/transactions", addTransactionHandler(ledgerSvc, logger))
			r.Get("/transactions/{transactionId}", getTransactionHandler(ledgerSvc, logger))
			r.Patch("/transactions/{transactionId}", updateTransactionHandler(ledgerSvc, logger))
			r.Delete("/transactions/{transactionId}", deleteTransactionHandler(ledgerSvc, logger))
			r.Post("/transactions/{transactionId}/reverse", reverseTransactionHandler(ledgerSvc, logger))

			// Aggregates
			r.Get("/periods/{periodId}/summary", summaryHandler(ledgerSvc, logger))
			r.Get("/periods/{periodId}/ledger/{method}", runningLedgerHandler(ledgerSvc, logger))
			r.Get("/periods/{periodId}/categories/{type}", categoryBreakdownHandler(ledgerSvc, logger))
			r.Get("/periods/{periodId}/top/{type}", topTransactionsHandler(ledgerSvc, logger))

			// Financial statements
			r.Get("/periods/{periodId}/balance-sheet", balanceSheetHandler(ledgerSvc, logger))
			r.Get("/periods/{periodId}/income-statement", incomeStatementHandler(ledgerSvc, logger))

			// Exports
			r.Get("/periods/{periodId}/export/journal.csv", exportJournalHandler(ledgerSvc, logger))

			// Company & categories
			r.Get("/company", getCompanyHandler(periodSvc, logger))
			r.Put("/company", setCompanyHandler(periodSvc, logger))
			r.Get("/categories", categoriesHandler(periodSvc))

			// Operational metrics snapshot
			r.Get("/metrics/ledger", ledgerMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(periodSvc *service.PeriodService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		_, err := periodSvc.List(r.Context())
		latency := time.Since(start).Milliseconds()

		status := "healthy"
		if err != nil {
			logger.Warn("healthz: ledger store check failed", zap.Error(err))
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":           status,
			"store_latency_ms": latency,
			"checked_at":       time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}
