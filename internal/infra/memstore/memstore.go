// Package memstore implements the ledger store in process memory with true
// push subscriptions. It is the default backend for local use and the
// reference implementation the remote adapters are tested against.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/port"
)

type subscriber struct {
	mu       sync.Mutex
	periodID string
	fn       port.SnapshotFunc
	closed   bool
}

// deliver invokes the callback unless the subscription has been cancelled.
// The per-subscriber lock guarantees no delivery after Unsubscribe returns.
func (s *subscriber) deliver(snapshot []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(snapshot)
}

// Store is a mutex-guarded in-memory ledger store.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	periods      map[string]domain.Period
	company      *domain.CompanyInfo
	settings     *domain.Settings
	subs         map[int]*subscriber
	nextSubID    int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions: make(map[string]domain.Transaction),
		periods:      make(map[string]domain.Period),
		subs:         make(map[int]*subscriber),
	}
}

var _ port.LedgerStore = (*Store)(nil)

// --- Transactions ---

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return &tx, nil
}

func (s *Store) PutTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	s.transactions[tx.ID] = *tx
	s.mu.Unlock()

	s.notify(tx.PeriodID)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	tx, ok := s.transactions[id]
	if !ok {
		s.mu.Unlock()
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	delete(s.transactions, id)
	s.mu.Unlock()

	s.notify(tx.PeriodID)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, periodID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(periodID), nil
}

func (s *Store) SubscribeTransactions(_ context.Context, periodID string, fn port.SnapshotFunc) (port.Unsubscribe, error) {
	sub := &subscriber{periodID: periodID, fn: fn}

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	snapshot := s.snapshotLocked(periodID)
	s.mu.Unlock()

	// Initial snapshot, mirroring the immediate first delivery of a
	// document-store listener.
	sub.deliver(snapshot)

	unsub := func() {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()

		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return unsub, nil
}

// notify pushes a fresh full snapshot to every subscriber of periodID.
func (s *Store) notify(periodID string) {
	s.mu.RLock()
	snapshot := s.snapshotLocked(periodID)
	var targets []*subscriber
	for _, sub := range s.subs {
		if sub.periodID == periodID {
			targets = append(targets, sub)
		}
	}
	s.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(snapshot)
	}
}

// snapshotLocked returns the period's transactions ordered by date
// descending, creation timestamp descending. Caller holds s.mu.
func (s *Store) snapshotLocked(periodID string) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.PeriodID == periodID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// --- Periods ---

func (s *Store) GetPeriod(_ context.Context, id string) (*domain.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.periods[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "period", ID: id}
	}
	return &p, nil
}

func (s *Store) PutPeriod(_ context.Context, p *domain.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.periods[p.ID] = *p
	return nil
}

func (s *Store) ListPeriods(_ context.Context) ([]domain.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Period, 0, len(s.periods))
	for _, p := range s.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

// --- Company info / settings ---

func (s *Store) GetCompanyInfo(_ context.Context) (*domain.CompanyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.company == nil {
		return nil, nil
	}
	info := *s.company
	return &info, nil
}

func (s *Store) SetCompanyInfo(_ context.Context, info *domain.CompanyInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *info
	s.company = &cp
	return nil
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	st := *s.settings
	return &st, nil
}

func (s *Store) SetSettings(_ context.Context, st *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.settings = &cp
	return nil
}
