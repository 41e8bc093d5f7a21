package postgrest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/infra/postgrest"
	"github.com/rakotomalala/compta-pme-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// fakePostgrest is a minimal PostgREST stand-in backed by a map.
type fakePostgrest struct {
	mu  sync.Mutex
	txs map[string]domain.Transaction
}

func (f *fakePostgrest) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/transactions") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("[]"))
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			var out []domain.Transaction
			idFilter := eqFilter(r.URL.Query().Get("id"))
			periodFilter := eqFilter(r.URL.Query().Get("period_id"))
			for _, tx := range f.txs {
				if idFilter != "" && tx.ID != idFilter {
					continue
				}
				if periodFilter != "" && tx.PeriodID != periodFilter {
					continue
				}
				out = append(out, tx)
			}
			if out == nil {
				out = []domain.Transaction{}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(out)

		case http.MethodPost:
			var tx domain.Transaction
			if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.txs[tx.ID] = tx
			w.WriteHeader(http.StatusCreated)

		case http.MethodDelete:
			id := eqFilter(r.URL.Query().Get("id"))
			deleted := []domain.Transaction{}
			if tx, ok := f.txs[id]; ok {
				deleted = append(deleted, tx)
				delete(f.txs, id)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(deleted)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func eqFilter(v string) string {
	v, _ = url.QueryUnescape(v)
	return strings.TrimPrefix(v, "eq.")
}

func newTestStore(t *testing.T) (*postgrest.Store, *fakePostgrest, func()) {
	t.Helper()
	fake := &fakePostgrest{txs: make(map[string]domain.Transaction)}
	srv := httptest.NewServer(fake.handler())

	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	client := postgrest.NewClient(srv.Client(), srv.URL, "anon", "service",
		resilience.NewCircuitBreaker("test"), cfg, zap.NewNop())
	store := postgrest.NewStore(client, 20*time.Millisecond, zap.NewNop())
	return store, fake, srv.Close
}

func TestStore_PutGetDelete(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tx := &domain.Transaction{
		ID:            "tx-1",
		Date:          "2025-02-01",
		Type:          domain.Expense,
		Description:   "Loyer février",
		Amount:        300000,
		Category:      "Loyer",
		PaymentMethod: domain.Bank,
		PeriodID:      "p1",
		CreatedAt:     time.Now().UTC(),
	}
	if err := store.PutTransaction(ctx, tx); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Loyer février" || got.Amount != 300000 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := store.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var notFound *domain.ErrNotFound
	if err := store.DeleteTransaction(ctx, "tx-1"); !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_GetTransaction_NotFound(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()

	_, err := store.GetTransaction(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_BackendDown_SurfacesExternalError(t *testing.T) {
	fake := &fakePostgrest{txs: make(map[string]domain.Transaction)}
	srv := httptest.NewServer(fake.handler())
	srv.Close() // backend unreachable

	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 2}
	client := postgrest.NewClient(&http.Client{Timeout: 200 * time.Millisecond}, srv.URL, "anon", "service",
		resilience.NewCircuitBreaker("down"), cfg, zap.NewNop())
	store := postgrest.NewStore(client, time.Second, zap.NewNop())

	_, err := store.ListTransactions(context.Background(), "p1")
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestStore_Subscribe_PollsChanges(t *testing.T) {
	store, fake, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	var mu sync.Mutex
	var last []domain.Transaction
	deliveries := 0

	unsub, err := store.SubscribeTransactions(ctx, "p1", func(txs []domain.Transaction) {
		mu.Lock()
		last = txs
		deliveries++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	fake.mu.Lock()
	fake.txs["tx-9"] = domain.Transaction{ID: "tx-9", Date: "2025-03-01", PeriodID: "p1", Type: domain.Income, Amount: 1000}
	fake.mu.Unlock()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(last)
		mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("poll subscription never delivered the new snapshot")
		case <-time.After(10 * time.Millisecond):
		}
	}

	unsub()
	mu.Lock()
	after := deliveries
	mu.Unlock()

	fake.mu.Lock()
	fake.txs["tx-10"] = domain.Transaction{ID: "tx-10", Date: "2025-03-02", PeriodID: "p1", Type: domain.Income, Amount: 500}
	fake.mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if deliveries != after {
		t.Errorf("expected no deliveries after unsubscribe, got %d more", deliveries-after)
	}
}
