package service_test

import (
	"testing"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/service"
)

func tx(id, date string, typ domain.TransactionType, amount float64, method domain.PaymentMethod, category string) domain.Transaction {
	return domain.Transaction{
		ID: id, Date: date, Type: typ, Amount: amount,
		PaymentMethod: method, Category: category,
		Description: id, PeriodID: "p1", CreatedAt: time.Now(),
	}
}

func reversalOf(orig domain.Transaction, id, date string) domain.Transaction {
	rev := orig
	rev.ID = id
	rev.Date = date
	rev.Type = orig.Type.Opposite()
	rev.Description = domain.ReversalPrefix + orig.Description
	rev.IsReversal = true
	rev.ReversedTransactionID = orig.ID
	return rev
}

func TestCancellationIndex(t *testing.T) {
	a := tx("a", "2025-01-01", domain.Income, 100, domain.Cash, "Ventes")
	b := tx("b", "2025-01-02", domain.Expense, 50, domain.Cash, "Achats")
	r := reversalOf(a, "r", "2025-01-03")

	idx := service.BuildCancellationIndex([]domain.Transaction{a, b, r})
	if !idx.IsReversed("a") {
		t.Error("a must be reversed")
	}
	if idx.IsReversed("b") || idx.IsReversed("r") {
		t.Error("only a is reversed")
	}
	if rev, ok := idx.ReversedBy("a"); !ok || rev != "r" {
		t.Errorf("expected a reversed by r, got %q (%v)", rev, ok)
	}

	// Nil input means nothing is reversed, never an error.
	if service.BuildCancellationIndex(nil).IsReversed("a") {
		t.Error("empty index must report nothing reversed")
	}
}

func TestTotals_ContributionRule(t *testing.T) {
	a := tx("a", "2025-01-01", domain.Income, 100, domain.Cash, "Ventes")
	b := tx("b", "2025-01-02", domain.Income, 40, domain.Bank, "Ventes")
	c := tx("c", "2025-01-03", domain.Expense, 30, domain.Cash, "Achats")
	r := reversalOf(a, "r", "2025-01-04")

	txs := []domain.Transaction{a, b, c, r}
	idx := service.BuildCancellationIndex(txs)

	// The reversed original and the reversal itself both drop out; the
	// reversal never adds its own opposite-signed amount.
	if got := service.TotalByType(txs, idx, domain.Income); got != 40 {
		t.Errorf("expected income 40, got %v", got)
	}
	if got := service.TotalByType(txs, idx, domain.Expense); got != 30 {
		t.Errorf("expected expense 30, got %v", got)
	}
	if got := service.CashBalance(txs, idx); got != -30 {
		t.Errorf("expected cash balance -30, got %v", got)
	}
	if got := service.BankBalance(txs, idx, 1000); got != 1040 {
		t.Errorf("expected bank balance 1040, got %v", got)
	}
}

func TestRunningLedger_Reconciliation(t *testing.T) {
	a := tx("a", "2025-01-01", domain.Income, 200, domain.Cash, "Ventes")
	b := tx("b", "2025-01-05", domain.Expense, 50, domain.Cash, "Achats")
	r := reversalOf(a, "r", "2025-01-10")

	txs := []domain.Transaction{b, r, a} // deliberately unordered
	lines := service.RunningLedger(txs, domain.Cash, 0)

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (reversals stay visible), got %d", len(lines))
	}
	// Date ascending.
	if lines[0].Transaction.ID != "a" || lines[1].Transaction.ID != "b" || lines[2].Transaction.ID != "r" {
		t.Fatalf("unexpected order: %s %s %s",
			lines[0].Transaction.ID, lines[1].Transaction.ID, lines[2].Transaction.ID)
	}
	if lines[0].Balance != 200 || lines[1].Balance != 150 {
		t.Errorf("unexpected intermediate balances: %v %v", lines[0].Balance, lines[1].Balance)
	}

	// After the reversal is processed, the original's effect has fully
	// cancelled: final balance equals the contributing-set balance.
	idx := service.BuildCancellationIndex(txs)
	if want := service.CashBalance(txs, idx); lines[2].Balance != want {
		t.Errorf("final balance %v does not reconcile with cash balance %v", lines[2].Balance, want)
	}
}

func TestRunningLedger_BankOpeningSeed(t *testing.T) {
	a := tx("a", "2025-01-01", domain.Expense, 300, domain.Bank, "Loyer")
	lines := service.RunningLedger([]domain.Transaction{a}, domain.Bank, 5000)
	if len(lines) != 1 || lines[0].Balance != 4700 {
		t.Fatalf("expected balance 4700, got %+v", lines)
	}
}

func TestByCategory(t *testing.T) {
	txs := []domain.Transaction{
		tx("a", "2025-01-01", domain.Expense, 100, domain.Cash, "Achats"),
		tx("b", "2025-01-02", domain.Expense, 250, domain.Bank, "Loyer"),
		tx("c", "2025-01-03", domain.Expense, 50, domain.Cash, "Achats"),
		tx("d", "2025-01-04", domain.Income, 999, domain.Cash, "Ventes"),
	}
	idx := service.BuildCancellationIndex(txs)

	got := service.ByCategory(txs, idx, domain.Expense)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].Category != "Loyer" || got[0].Total != 250 {
		t.Errorf("expected Loyer 250 first, got %+v", got[0])
	}
	if got[1].Category != "Achats" || got[1].Total != 150 {
		t.Errorf("expected Achats 150, got %+v", got[1])
	}
}

func TestTopN_OrderAndTies(t *testing.T) {
	old := tx("old", "2025-01-01", domain.Income, 500, domain.Cash, "Ventes")
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := tx("recent", "2025-01-02", domain.Income, 500, domain.Cash, "Ventes")
	small := tx("small", "2025-01-03", domain.Income, 10, domain.Cash, "Ventes")
	big := tx("big", "2025-01-04", domain.Income, 900, domain.Bank, "Ventes")

	txs := []domain.Transaction{small, old, recent, big}
	idx := service.BuildCancellationIndex(txs)

	got := service.TopN(txs, idx, domain.Income, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ID != "big" {
		t.Errorf("expected big first, got %s", got[0].ID)
	}
	// Equal amounts: most recently created wins.
	if got[1].ID != "recent" || got[2].ID != "old" {
		t.Errorf("expected recent before old on tie, got %s then %s", got[1].ID, got[2].ID)
	}
}
