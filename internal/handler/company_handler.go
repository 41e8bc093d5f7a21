package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Company & Category Handlers
// ============================================================

func getCompanyHandler(svc *service.PeriodService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /company")
		defer span.End()
		info, err := svc.CompanyInfo(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func setCompanyHandler(svc *service.PeriodService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /company")
		defer span.End()
		var info domain.CompanyInfo
		if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := svc.SetCompanyInfo(ctx, &info); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func categoriesHandler(svc *service.PeriodService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /categories")
		defer span.End()
		writeJSON(w, http.StatusOK, svc.Categories())
	}
}
