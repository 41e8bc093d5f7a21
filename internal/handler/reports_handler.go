package handler

import (
	"net/http"
	"strconv"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Report Handlers
// ============================================================

func summaryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/summary")
		defer span.End()
		summary, err := svc.Summary(ctx, chi.URLParam(r, "periodId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func runningLedgerHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/ledger/{method}")
		defer span.End()
		method := domain.PaymentMethod(chi.URLParam(r, "method"))
		lines, err := svc.Ledger(ctx, chi.URLParam(r, "periodId"), method)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lines)
	}
}

func categoryBreakdownHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/categories/{type}")
		defer span.End()
		typ := domain.TransactionType(chi.URLParam(r, "type"))
		totals, err := svc.CategoryBreakdown(ctx, chi.URLParam(r, "periodId"), typ)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

func topTransactionsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/top/{type}")
		defer span.End()
		n := 0
		if raw := r.URL.Query().Get("n"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "n must be an integer")
				return
			}
			n = parsed
		}
		typ := domain.TransactionType(chi.URLParam(r, "type"))
		txs, err := svc.TopTransactions(ctx, chi.URLParam(r, "periodId"), typ, n)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func balanceSheetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/balance-sheet")
		defer span.End()
		sheet, err := svc.BalanceSheet(ctx, chi.URLParam(r, "periodId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sheet)
	}
}

func incomeStatementHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/income-statement")
		defer span.End()
		statement, err := svc.IncomeStatement(ctx, chi.URLParam(r, "periodId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, statement)
	}
}
