package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/infra/memstore"
)

func tx(id, date, periodID string, createdAt time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:            id,
		Date:          date,
		Type:          domain.Income,
		Description:   "test",
		Amount:        100,
		Category:      "Ventes",
		PaymentMethod: domain.Bank,
		PeriodID:      periodID,
		CreatedAt:     createdAt,
	}
}

func TestListTransactions_Ordering(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.PutTransaction(ctx, tx("tx-a", "2025-01-10", "p1", base))
	s.PutTransaction(ctx, tx("tx-b", "2025-02-05", "p1", base.Add(time.Minute)))
	s.PutTransaction(ctx, tx("tx-c", "2025-01-10", "p1", base.Add(2*time.Minute)))
	s.PutTransaction(ctx, tx("tx-other", "2025-01-15", "p2", base))

	list, err := s.ListTransactions(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(list))
	}

	// Date desc first, then creation timestamp desc for the same date.
	want := []string{"tx-b", "tx-c", "tx-a"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestGetTransaction_NotFound(t *testing.T) {
	s := memstore.New()

	_, err := s.GetTransaction(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing transaction")
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %T", err)
	}
}

func TestSubscribe_DeliversSnapshots(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	var mu sync.Mutex
	var deliveries [][]domain.Transaction

	unsub, err := s.SubscribeTransactions(ctx, "p1", func(txs []domain.Transaction) {
		mu.Lock()
		deliveries = append(deliveries, txs)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	s.PutTransaction(ctx, tx("tx-1", "2025-01-10", "p1", time.Now()))
	s.PutTransaction(ctx, tx("tx-2", "2025-01-11", "p1", time.Now()))

	mu.Lock()
	defer mu.Unlock()
	// Initial empty snapshot + one per mutation.
	if len(deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(deliveries))
	}
	if len(deliveries[0]) != 0 {
		t.Errorf("expected initial snapshot empty, got %d entries", len(deliveries[0]))
	}
	// Each delivery is a full replacement snapshot, not a patch.
	if len(deliveries[2]) != 2 {
		t.Errorf("expected final snapshot with 2 entries, got %d", len(deliveries[2]))
	}
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	var mu sync.Mutex
	count := 0

	unsub, err := s.SubscribeTransactions(ctx, "p1", func([]domain.Transaction) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	s.PutTransaction(ctx, tx("tx-1", "2025-01-10", "p1", time.Now()))
	unsub()
	s.PutTransaction(ctx, tx("tx-2", "2025-01-11", "p1", time.Now()))

	mu.Lock()
	defer mu.Unlock()
	if count != 2 { // initial snapshot + first put only
		t.Errorf("expected 2 deliveries before unsubscribe, got %d", count)
	}
}

func TestSubscribe_FiltersByPeriod(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	var mu sync.Mutex
	count := 0

	unsub, _ := s.SubscribeTransactions(ctx, "p1", func([]domain.Transaction) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer unsub()

	s.PutTransaction(ctx, tx("tx-1", "2025-01-10", "p2", time.Now()))

	mu.Lock()
	defer mu.Unlock()
	if count != 1 { // only the initial snapshot
		t.Errorf("expected no delivery for other period, got %d deliveries", count)
	}
}

func TestPeriods_ListOrdering(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	s.PutPeriod(ctx, &domain.Period{ID: "p-2023", Year: 2023})
	s.PutPeriod(ctx, &domain.Period{ID: "p-2025", Year: 2025})
	s.PutPeriod(ctx, &domain.Period{ID: "p-2024", Year: 2024})

	list, err := s.ListPeriods(ctx)
	if err != nil {
		t.Fatalf("list periods: %v", err)
	}
	if len(list) != 3 || list[0].Year != 2025 || list[2].Year != 2023 {
		t.Errorf("expected periods year-descending, got %+v", list)
	}
}

func TestCompanyInfo_RoundTrip(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	info, err := s.GetCompanyInfo(ctx)
	if err != nil {
		t.Fatalf("get company info: %v", err)
	}
	if info != nil {
		t.Fatal("expected nil company info before set")
	}

	if err := s.SetCompanyInfo(ctx, &domain.CompanyInfo{Name: "Soa SARL", InitialCapital: 500000}); err != nil {
		t.Fatalf("set company info: %v", err)
	}
	info, err = s.GetCompanyInfo(ctx)
	if err != nil {
		t.Fatalf("get company info: %v", err)
	}
	if info == nil || info.InitialCapital != 500000 {
		t.Errorf("expected stored capital 500000, got %+v", info)
	}
}

