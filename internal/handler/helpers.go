package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rakotomalala/compta-pme-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var alreadyReversal *domain.ErrAlreadyReversal
	var alreadyReversed *domain.ErrAlreadyReversed
	var periodClosed *domain.ErrPeriodClosed
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &alreadyReversal):
		logger.Debug("reversal of a reversal rejected", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &alreadyReversed):
		logger.Debug("double reversal rejected",
			zap.String("transaction_id", alreadyReversed.ID),
			zap.String("reversal_id", alreadyReversed.ReversalID),
		)
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &periodClosed):
		logger.Debug("write into closed period rejected", zap.String("period_id", periodClosed.PeriodID))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &external):
		logger.Error("ledger store unavailable",
			zap.String("backend", external.Service),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "ledger store unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
