// Package service provides the business logic layer (use cases).
// LedgerService owns the transaction repository, the reversal protocol and
// the derived aggregates; PeriodService manages accounting periods and the
// company configuration; AuthService gates the HTTP API.
package service

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/infra/observability"
	"github.com/rakotomalala/compta-pme-go/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService orchestrates transaction CRUD, reversals and aggregate
// reports over a period's transaction set. Summaries are memoized in the
// cache and invalidated on every mutation.
type LedgerService struct {
	store   port.LedgerStore
	cache   port.Cache[domain.PeriodSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store port.LedgerStore, cache port.Cache[domain.PeriodSummary], metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{store: store, cache: cache, metrics: metrics, logger: logger}
}

func summaryCacheKey(periodID string) string {
	return "summary:" + periodID
}

// invalidate drops the memoized summary after any write into the period.
func (s *LedgerService) invalidate(periodID string) {
	s.cache.Delete(summaryCacheKey(periodID))
}

// track records the operation's duration and outcome. Used via
// `defer s.track(op, time.Now(), &err)` on methods with a named error
// return; store faults additionally bump the per-backend error counter.
func (s *LedgerService) track(op string, start time.Time, errp *error) {
	s.metrics.RecordRequestDuration(op, time.Since(start))
	if *errp == nil {
		s.metrics.IncrRequest("success")
		return
	}
	s.metrics.IncrRequest("error")
	var external *domain.ErrExternalService
	if errors.As(*errp, &external) {
		s.metrics.IncrStoreError(external.Service)
	}
}
