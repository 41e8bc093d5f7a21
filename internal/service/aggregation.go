package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
)

// ============================================================
// Pure aggregation functions
// ============================================================
//
// A transaction contributes to a total iff it is not itself a reversal and
// has not been reversed. Reversal entries never add their own opposite
// amount to a sum: cancellation works by removing the original from the
// contributing set, which keeps the paper trail separate from the math.

func contributes(tx *domain.Transaction, idx *CancellationIndex) bool {
	return !tx.IsReversal && !idx.IsReversed(tx.ID)
}

// TotalByType sums contributing amounts of the given type.
func TotalByType(txs []domain.Transaction, idx *CancellationIndex, typ domain.TransactionType) float64 {
	var total float64
	for i := range txs {
		if txs[i].Type == typ && contributes(&txs[i], idx) {
			total += txs[i].Amount
		}
	}
	return total
}

// CashBalance is contributing cash income minus contributing cash expense.
// No opening balance is applied: the cash opening balance is zero by
// convention in this model.
func CashBalance(txs []domain.Transaction, idx *CancellationIndex) float64 {
	var balance float64
	for i := range txs {
		tx := &txs[i]
		if tx.PaymentMethod != domain.Cash || !contributes(tx, idx) {
			continue
		}
		if tx.Type == domain.Income {
			balance += tx.Amount
		} else {
			balance -= tx.Amount
		}
	}
	return balance
}

// BankBalance is the period's opening bank balance plus contributing bank
// income minus contributing bank expense.
func BankBalance(txs []domain.Transaction, idx *CancellationIndex, openingBalance float64) float64 {
	balance := openingBalance
	for i := range txs {
		tx := &txs[i]
		if tx.PaymentMethod != domain.Bank || !contributes(tx, idx) {
			continue
		}
		if tx.Type == domain.Income {
			balance += tx.Amount
		} else {
			balance -= tx.Amount
		}
	}
	return balance
}

// ByCategory breaks contributing transactions of one type down per category,
// largest total first.
func ByCategory(txs []domain.Transaction, idx *CancellationIndex, typ domain.TransactionType) []domain.CategoryTotal {
	sums := map[string]float64{}
	for i := range txs {
		if txs[i].Type == typ && contributes(&txs[i], idx) {
			sums[txs[i].Category] += txs[i].Amount
		}
	}

	out := make([]domain.CategoryTotal, 0, len(sums))
	for cat, total := range sums {
		out = append(out, domain.CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total > out[b].Total
		}
		return out[a].Category < out[b].Category
	})
	return out
}

// TopN returns the n largest contributing transactions of one type, amount
// descending, most recently created first on equal amounts.
func TopN(txs []domain.Transaction, idx *CancellationIndex, typ domain.TransactionType, n int) []domain.Transaction {
	var pool []domain.Transaction
	for i := range txs {
		if txs[i].Type == typ && contributes(&txs[i], idx) {
			pool = append(pool, txs[i])
		}
	}
	sort.Slice(pool, func(a, b int) bool {
		if pool[a].Amount != pool[b].Amount {
			return pool[a].Amount > pool[b].Amount
		}
		return pool[a].CreatedAt.After(pool[b].CreatedAt)
	})
	if n >= 0 && n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

// RunningLedger produces the sub-ledger of one payment method: every entry
// of the method in booking-date ascending order, each paired with the
// cumulative balance after applying it. Reversals and reversed originals
// stay visible here; the opposite-typed reversal cancels its original's
// effect once both have been processed, so the final balance reconciles
// with the contributing-set balance.
func RunningLedger(txs []domain.Transaction, method domain.PaymentMethod, openingBalance float64) []domain.LedgerLine {
	var entries []domain.Transaction
	for i := range txs {
		if txs[i].PaymentMethod == method {
			entries = append(entries, txs[i])
		}
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Date != entries[b].Date {
			return entries[a].Date < entries[b].Date
		}
		if !entries[a].CreatedAt.Equal(entries[b].CreatedAt) {
			return entries[a].CreatedAt.Before(entries[b].CreatedAt)
		}
		return entries[a].ID < entries[b].ID
	})

	balance := openingBalance
	lines := make([]domain.LedgerLine, 0, len(entries))
	for _, tx := range entries {
		if tx.Type == domain.Income {
			balance += tx.Amount
		} else {
			balance -= tx.Amount
		}
		lines = append(lines, domain.LedgerLine{Transaction: tx, Balance: balance})
	}
	return lines
}

// ============================================================
// Service wrappers (load + memoize)
// ============================================================

// loadPeriodSet fetches the period and its transactions.
func (s *LedgerService) loadPeriodSet(ctx context.Context, periodID string) ([]domain.Transaction, *domain.Period, error) {
	p, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.store.ListTransactions(ctx, periodID)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, p, nil
}

// Summary returns the headline aggregates for the period, memoized until
// the next mutation or cache expiry.
func (s *LedgerService) Summary(ctx context.Context, periodID string) (_ *domain.PeriodSummary, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Summary")
	defer span.End()
	defer s.track("summary", time.Now(), &err)
	span.SetAttributes(attribute.String("period.id", periodID))

	if cached, ok := s.cache.Get(summaryCacheKey(periodID)); ok {
		s.metrics.IncrCacheHit("summary")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("summary")

	txs, p, err := s.loadPeriodSet(ctx, periodID)
	if err != nil {
		return nil, err
	}

	idx := BuildCancellationIndex(txs)
	income := TotalByType(txs, idx, domain.Income)
	expense := TotalByType(txs, idx, domain.Expense)
	summary := domain.PeriodSummary{
		PeriodID:     periodID,
		TotalIncome:  income,
		TotalExpense: expense,
		CashBalance:  CashBalance(txs, idx),
		BankBalance:  BankBalance(txs, idx, p.OpeningBankBalance),
		Result:       income - expense,
	}

	s.cache.Set(summaryCacheKey(periodID), summary)
	return &summary, nil
}

// Ledger returns the running sub-ledger for one payment method.
func (s *LedgerService) Ledger(ctx context.Context, periodID string, method domain.PaymentMethod) ([]domain.LedgerLine, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Ledger")
	defer span.End()
	span.SetAttributes(
		attribute.String("period.id", periodID),
		attribute.String("payment.method", string(method)),
	)

	if !method.Valid() {
		return nil, &domain.ErrValidation{Field: "method", Message: "payment method must be cash or bank"}
	}

	txs, p, err := s.loadPeriodSet(ctx, periodID)
	if err != nil {
		return nil, err
	}

	opening := float64(0)
	if method == domain.Bank {
		opening = p.OpeningBankBalance
	}
	return RunningLedger(txs, method, opening), nil
}

// CategoryBreakdown returns per-category totals for one transaction type.
func (s *LedgerService) CategoryBreakdown(ctx context.Context, periodID string, typ domain.TransactionType) ([]domain.CategoryTotal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CategoryBreakdown")
	defer span.End()

	if !typ.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}

	txs, _, err := s.loadPeriodSet(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return ByCategory(txs, BuildCancellationIndex(txs), typ), nil
}

// TopTransactions returns the n largest contributing transactions of a type.
func (s *LedgerService) TopTransactions(ctx context.Context, periodID string, typ domain.TransactionType, n int) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.TopTransactions")
	defer span.End()

	if !typ.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}
	if n <= 0 {
		n = 5
	}

	txs, _, err := s.loadPeriodSet(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return TopN(txs, BuildCancellationIndex(txs), typ, n), nil
}
