package service_test

import (
	"context"
	"testing"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
)

func TestBalanceSheet_Identity(t *testing.T) {
	svc, store := newLedger(t)
	ctx := context.Background()

	if err := store.SetCompanyInfo(ctx, &domain.CompanyInfo{
		Name: "Sarl Ravinala", InitialCapital: 10000,
	}); err != nil {
		t.Fatalf("set company info: %v", err)
	}

	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-02-01", Type: domain.Income, Description: "Ventes",
		Amount: 8000, Category: "Ventes", PaymentMethod: domain.Bank,
	})
	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-02-02", Type: domain.Expense, Description: "Achat stock",
		Amount: 3000, Category: "Achats de marchandises", PaymentMethod: domain.Bank,
	})

	sheet, err := svc.BalanceSheet(ctx, testPeriodID)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}

	// result = 5000; treasury = result + capital
	if sheet.Assets.Treasury != 15000 {
		t.Errorf("expected treasury 15000, got %v", sheet.Assets.Treasury)
	}
	if sheet.Liabilities.Equity != 15000 || sheet.Liabilities.Debts != 0 {
		t.Errorf("expected equity 15000 / debts 0, got %v / %v",
			sheet.Liabilities.Equity, sheet.Liabilities.Debts)
	}
	if sheet.Assets.Total != sheet.Liabilities.Total {
		t.Errorf("balance sheet out of balance: assets %v, liabilities %v",
			sheet.Assets.Total, sheet.Liabilities.Total)
	}
}

func TestBalanceSheet_LossCarriedAsNegativeEquity(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-02-01", Type: domain.Expense, Description: "Grosses charges",
		Amount: 4000, Category: "Autres charges", PaymentMethod: domain.Bank,
	})

	sheet, err := svc.BalanceSheet(ctx, testPeriodID)
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}

	// No company record: capital defaults to zero. The loss drains treasury
	// on the asset side and shows as negative equity on the liability side,
	// so both sides still agree.
	if sheet.Assets.Treasury != -4000 {
		t.Errorf("expected treasury -4000, got %v", sheet.Assets.Treasury)
	}
	if sheet.Liabilities.Equity != -4000 {
		t.Errorf("expected equity -4000, got %v", sheet.Liabilities.Equity)
	}
	if sheet.Liabilities.Debts != 0 {
		t.Errorf("expected debts 0, got %v", sheet.Liabilities.Debts)
	}
	if sheet.Assets.Total != sheet.Liabilities.Total {
		t.Errorf("balance sheet out of balance: assets %v, liabilities %v",
			sheet.Assets.Total, sheet.Liabilities.Total)
	}
}

func TestIncomeStatement_KeywordPartition(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-03-01", Type: domain.Income, Description: "Ventes mars",
		Amount: 9000, Category: "Ventes de produits/marchandises", PaymentMethod: domain.Bank,
	})
	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-03-02", Type: domain.Expense, Description: "Stock",
		Amount: 2000, Category: "Achats de marchandises", PaymentMethod: domain.Bank,
	})
	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-03-03", Type: domain.Expense, Description: "Paie",
		Amount: 1500, Category: "Salaires et charges du personnel", PaymentMethod: domain.Bank,
	})
	mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-03-04", Type: domain.Expense, Description: "Loyer",
		Amount: 700, Category: "Loyer", PaymentMethod: domain.Bank,
	})

	stmt, err := svc.IncomeStatement(ctx, testPeriodID)
	if err != nil {
		t.Fatalf("income statement: %v", err)
	}

	if stmt.Revenue.Total != 9000 || stmt.Revenue.Sales != 9000 {
		t.Errorf("unexpected revenue: %+v", stmt.Revenue)
	}
	if stmt.Expenses.Purchases != 2000 {
		t.Errorf("expected purchases 2000, got %v", stmt.Expenses.Purchases)
	}
	if stmt.Expenses.PersonnelCharges != 1500 {
		t.Errorf("expected personnel 1500, got %v", stmt.Expenses.PersonnelCharges)
	}
	if stmt.Expenses.OtherCharges != 700 {
		t.Errorf("expected other charges 700, got %v", stmt.Expenses.OtherCharges)
	}

	// The three buckets always partition the expense total.
	sum := stmt.Expenses.Purchases + stmt.Expenses.PersonnelCharges + stmt.Expenses.OtherCharges
	if sum != stmt.Expenses.Total {
		t.Errorf("partition broken: %v != %v", sum, stmt.Expenses.Total)
	}
	if stmt.Result != 9000-4200 {
		t.Errorf("expected result 4800, got %v", stmt.Result)
	}
}

func TestIncomeStatement_ReversedExpenseLeavesPartition(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	purchase := mustAdd(t, svc, domain.TransactionDraft{
		Date: "2025-03-02", Type: domain.Expense, Description: "Stock",
		Amount: 2000, Category: "Achats de marchandises", PaymentMethod: domain.Bank,
	})
	if _, err := svc.Reverse(ctx, purchase.ID); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	stmt, err := svc.IncomeStatement(ctx, testPeriodID)
	if err != nil {
		t.Fatalf("income statement: %v", err)
	}
	if stmt.Expenses.Purchases != 0 || stmt.Expenses.Total != 0 {
		t.Errorf("reversed purchase must drop out, got %+v", stmt.Expenses)
	}
}
