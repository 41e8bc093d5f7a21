package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/infra/cache"
	"github.com/rakotomalala/compta-pme-go/internal/infra/memstore"
	"github.com/rakotomalala/compta-pme-go/internal/service"

	"go.uber.org/zap"
)

func newPeriods(t *testing.T) (*service.PeriodService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := service.NewPeriodService(store, cache.New[domain.PeriodSummary](time.Minute), zap.NewNop())
	return svc, store
}

func TestPeriodCreate_FirstBecomesCurrent(t *testing.T) {
	svc, store := newPeriods(t)
	ctx := context.Background()

	p1, err := svc.Create(ctx, &service.PeriodDraft{
		Year: 2024, StartDate: "2024-01-01", EndDate: "2024-12-31", OpeningBankBalance: 5000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p1.OpeningBankBalance != 5000 {
		t.Errorf("expected opening balance 5000, got %v", p1.OpeningBankBalance)
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings == nil || settings.CurrentPeriodID != p1.ID {
		t.Fatalf("first period must become current, settings=%+v", settings)
	}

	// A second period must not steal the current slot.
	p2, err := svc.Create(ctx, &service.PeriodDraft{
		Year: 2025, StartDate: "2025-01-01", EndDate: "2025-12-31",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	settings, _ = store.GetSettings(ctx)
	if settings.CurrentPeriodID != p1.ID {
		t.Errorf("current period switched implicitly to %s", settings.CurrentPeriodID)
	}

	// Explicit switch.
	if err := svc.SetCurrentPeriod(ctx, p2.ID); err != nil {
		t.Fatalf("set current: %v", err)
	}
	current, err := svc.CurrentPeriod(ctx)
	if err != nil {
		t.Fatalf("current period: %v", err)
	}
	if current.ID != p2.ID {
		t.Errorf("expected current %s, got %s", p2.ID, current.ID)
	}
}

func TestPeriodCreate_Validation(t *testing.T) {
	svc, _ := newPeriods(t)
	ctx := context.Background()

	cases := []service.PeriodDraft{
		{Year: 0, StartDate: "2025-01-01", EndDate: "2025-12-31"},
		{Year: 2025, StartDate: "not-a-date", EndDate: "2025-12-31"},
		{Year: 2025, StartDate: "2025-12-31", EndDate: "2025-01-01"},
	}
	for _, draft := range cases {
		_, err := svc.Create(ctx, &draft)
		var verr *domain.ErrValidation
		if !errors.As(err, &verr) {
			t.Errorf("draft %+v: expected validation error, got %v", draft, err)
		}
	}
}

func TestPeriodClose_OneWayAndIdempotent(t *testing.T) {
	svc, _ := newPeriods(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, &service.PeriodDraft{
		Year: 2025, StartDate: "2025-01-01", EndDate: "2025-12-31",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	closed, err := svc.Close(ctx, p.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.Closed {
		t.Fatal("period must be closed")
	}

	// Closing again is a no-op, not an error.
	again, err := svc.Close(ctx, p.ID)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !again.Closed {
		t.Fatal("period must stay closed")
	}
}

func TestSetCurrentPeriod_UnknownID(t *testing.T) {
	svc, _ := newPeriods(t)

	err := svc.SetCurrentPeriod(context.Background(), "period-missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCompanyInfo_RoundTripAndDefault(t *testing.T) {
	svc, _ := newPeriods(t)
	ctx := context.Background()

	// Nothing saved yet: an empty record, not an error.
	info, err := svc.CompanyInfo(ctx)
	if err != nil {
		t.Fatalf("company info: %v", err)
	}
	if info.InitialCapital != 0 {
		t.Errorf("expected zero capital default, got %v", info.InitialCapital)
	}

	if err := svc.SetCompanyInfo(ctx, &domain.CompanyInfo{
		Name: "Sarl Ravinala", InitialCapital: 20000, Currency: "MGA",
	}); err != nil {
		t.Fatalf("set company info: %v", err)
	}

	info, err = svc.CompanyInfo(ctx)
	if err != nil {
		t.Fatalf("company info: %v", err)
	}
	if info.Name != "Sarl Ravinala" || info.InitialCapital != 20000 {
		t.Errorf("unexpected record: %+v", info)
	}

	// Name is mandatory.
	err = svc.SetCompanyInfo(ctx, &domain.CompanyInfo{})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCategories_Builtin(t *testing.T) {
	svc, _ := newPeriods(t)

	cats := svc.Categories()
	if len(cats) == 0 {
		t.Fatal("expected built-in categories")
	}
	var incomes, expenses int
	for _, c := range cats {
		switch c.Type {
		case domain.Income:
			incomes++
		case domain.Expense:
			expenses++
		}
	}
	if incomes == 0 || expenses == 0 {
		t.Errorf("expected both income and expense categories, got %d/%d", incomes, expenses)
	}
}
