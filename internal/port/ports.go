// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
)

// Unsubscribe cancels a live subscription. After it returns, no further
// callback delivery is observable.
type Unsubscribe func()

// SnapshotFunc receives the full transaction set of a period on every
// change. Each delivery replaces prior state entirely; consumers recompute
// all aggregates from the snapshot.
type SnapshotFunc func(transactions []domain.Transaction)

// TransactionStore persists the append-mostly transaction log.
// List and snapshots are ordered by booking date descending, creation
// timestamp descending.
type TransactionStore interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	PutTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, periodID string) ([]domain.Transaction, error)
	SubscribeTransactions(ctx context.Context, periodID string, fn SnapshotFunc) (Unsubscribe, error)
}

// PeriodStore persists accounting periods, ordered by year descending.
type PeriodStore interface {
	GetPeriod(ctx context.Context, id string) (*domain.Period, error)
	PutPeriod(ctx context.Context, p *domain.Period) error
	ListPeriods(ctx context.Context) ([]domain.Period, error)
}

// ConfigStore persists the company info and settings singletons.
type ConfigStore interface {
	GetCompanyInfo(ctx context.Context) (*domain.CompanyInfo, error)
	SetCompanyInfo(ctx context.Context, info *domain.CompanyInfo) error
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SetSettings(ctx context.Context, s *domain.Settings) error
}

// LedgerStore is the full persistence surface the service needs.
// Implemented by the in-memory, PostgREST and MongoDB adapters.
type LedgerStore interface {
	TransactionStore
	PeriodStore
	ConfigStore
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
