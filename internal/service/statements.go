package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
)

// statementInputs bundles everything the statement builders need.
type statementInputs struct {
	txs     []domain.Transaction
	period  *domain.Period
	company *domain.CompanyInfo
}

// loadStatementInputs fetches transactions, period and company info in
// parallel. A missing company record is not an error; capital defaults to 0.
func (s *LedgerService) loadStatementInputs(ctx context.Context, periodID string) (*statementInputs, error) {
	in := &statementInputs{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, periodID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		in.txs = txs
		return nil
	})
	g.Go(func() error {
		p, err := s.store.GetPeriod(gctx, periodID)
		if err != nil {
			return err
		}
		in.period = p
		return nil
	})
	g.Go(func() error {
		info, err := s.store.GetCompanyInfo(gctx)
		if err != nil {
			return fmt.Errorf("get company info: %w", err)
		}
		in.company = info
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// BalanceSheet derives the simplified end-of-period balance sheet. The two
// sides balance by construction: treasury is capital plus result on the
// asset side, equity is capital plus result on the liability side.
func (s *LedgerService) BalanceSheet(ctx context.Context, periodID string) (_ *domain.BalanceSheet, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.BalanceSheet")
	defer span.End()
	defer s.track("balance_sheet", time.Now(), &err)
	span.SetAttributes(attribute.String("period.id", periodID))

	in, err := s.loadStatementInputs(ctx, periodID)
	if err != nil {
		return nil, err
	}

	capital := float64(0)
	if in.company != nil {
		capital = in.company.InitialCapital
	}

	idx := BuildCancellationIndex(in.txs)
	income := TotalByType(in.txs, idx, domain.Income)
	expense := TotalByType(in.txs, idx, domain.Expense)
	result := income - expense

	sheet := &domain.BalanceSheet{
		PeriodID: periodID,
		Date:     time.Now().Format("2006-01-02"),
	}

	sheet.Assets.Treasury = result + capital
	sheet.Assets.Total = sheet.Assets.FixedAssets + sheet.Assets.Inventory +
		sheet.Assets.Receivables + sheet.Assets.Treasury

	// A loss is carried as negative equity rather than booked as a debt:
	// debts would break the two-sides identity, since the asset side
	// already absorbs the loss through treasury.
	sheet.Liabilities.Equity = capital + result
	sheet.Liabilities.Total = sheet.Liabilities.Equity + sheet.Liabilities.Debts

	return sheet, nil
}

// matchesAny reports whether the category text contains one of the keywords,
// case-insensitively.
func matchesAny(category string, keywords []string) bool {
	lower := strings.ToLower(category)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IncomeStatement derives the simplified income statement. Expenses are
// partitioned by category keywords into purchases, personnel charges and a
// residual bucket; the keyword sets are disjoint so the three always sum to
// the expense total.
func (s *LedgerService) IncomeStatement(ctx context.Context, periodID string) (_ *domain.IncomeStatement, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.IncomeStatement")
	defer span.End()
	defer s.track("income_statement", time.Now(), &err)
	span.SetAttributes(attribute.String("period.id", periodID))

	in, err := s.loadStatementInputs(ctx, periodID)
	if err != nil {
		return nil, err
	}

	idx := BuildCancellationIndex(in.txs)
	income := TotalByType(in.txs, idx, domain.Income)
	expense := TotalByType(in.txs, idx, domain.Expense)

	var purchases, personnel float64
	for i := range in.txs {
		tx := &in.txs[i]
		if tx.Type != domain.Expense || !contributes(tx, idx) {
			continue
		}
		switch {
		case matchesAny(tx.Category, domain.PurchaseKeywords):
			purchases += tx.Amount
		case matchesAny(tx.Category, domain.PersonnelKeywords):
			personnel += tx.Amount
		}
	}

	stmt := &domain.IncomeStatement{
		PeriodID: periodID,
		Date:     time.Now().Format("2006-01-02"),
		Result:   income - expense,
	}
	stmt.Revenue.Sales = income
	stmt.Revenue.Total = income
	stmt.Expenses.Purchases = purchases
	stmt.Expenses.PersonnelCharges = personnel
	stmt.Expenses.OtherCharges = expense - purchases - personnel
	stmt.Expenses.Total = expense

	return stmt, nil
}
