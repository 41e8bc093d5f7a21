package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// CSV Export Handler
// ============================================================

// journalHeaders match the column layout accountants expect from the
// desktop export, French labels included.
var journalHeaders = []string{
	"Date",
	"Type",
	"Description",
	"Catégorie",
	"Montant (Ar)",
	"Moyen de paiement",
	"Client/Fournisseur",
	"N° Pièce",
}

func exportJournalHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /periods/{periodId}/export/journal.csv")
		defer span.End()

		periodID := chi.URLParam(r, "periodId")
		txs, err := svc.ListByPeriod(ctx, periodID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "journal-"+periodID+".csv"))
		// BOM so spreadsheet tools pick up UTF-8 accents.
		w.Write([]byte("\xEF\xBB\xBF"))

		cw := csv.NewWriter(w)
		cw.Write(journalHeaders)
		for i := len(txs) - 1; i >= 0; i-- { // chronological order
			tx := txs[i]
			cw.Write(journalRow(tx))
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logger.Error("csv export failed",
				zap.String("period_id", periodID),
				zap.Error(err))
		}
	}
}

func journalRow(tx domain.Transaction) []string {
	typeLabel := "Recette"
	if tx.Type == domain.Expense {
		typeLabel = "Dépense"
	}
	methodLabel := "Espèces"
	if tx.PaymentMethod == domain.Bank {
		methodLabel = "Banque"
	}
	return []string{
		tx.Date,
		typeLabel,
		tx.Description,
		tx.Category,
		strconv.FormatFloat(tx.Amount, 'f', -1, 64),
		methodLabel,
		tx.Counterparty,
		tx.DocumentRef,
	}
}
