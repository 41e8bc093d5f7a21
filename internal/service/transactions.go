package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/port"
)

// newTransactionID mints an id embedding the creation instant; the
// timestamp part keeps ids roughly sortable and breaks ordering ties.
func newTransactionID(now time.Time) string {
	return fmt.Sprintf("tx-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func validateDraft(d *domain.TransactionDraft) error {
	if d.Date == "" {
		return &domain.ErrValidation{Field: "date", Message: "date is required"}
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return &domain.ErrValidation{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	if !d.Type.Valid() {
		return &domain.ErrValidation{Field: "type", Message: "type must be income or expense"}
	}
	if d.Description == "" {
		return &domain.ErrValidation{Field: "description", Message: "description is required"}
	}
	if d.Amount < 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must not be negative"}
	}
	if d.Category == "" {
		return &domain.ErrValidation{Field: "category", Message: "category is required"}
	}
	if !d.PaymentMethod.Valid() {
		return &domain.ErrValidation{Field: "payment_method", Message: "payment method must be cash or bank"}
	}
	return nil
}

// requireOpenPeriod loads the period and rejects writes into a closed one.
func (s *LedgerService) requireOpenPeriod(ctx context.Context, periodID string) (*domain.Period, error) {
	p, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p.Closed {
		return nil, &domain.ErrPeriodClosed{PeriodID: periodID}
	}
	return p, nil
}

// Add validates the draft and books a new transaction into the period.
func (s *LedgerService) Add(ctx context.Context, periodID string, draft *domain.TransactionDraft) (_ *domain.Transaction, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Add")
	defer span.End()
	defer s.track("add", time.Now(), &err)
	span.SetAttributes(attribute.String("period.id", periodID))

	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if _, err := s.requireOpenPeriod(ctx, periodID); err != nil {
		return nil, err
	}

	now := time.Now()
	tx := &domain.Transaction{
		ID:            newTransactionID(now),
		Date:          draft.Date,
		Type:          draft.Type,
		Description:   draft.Description,
		Amount:        draft.Amount,
		Category:      draft.Category,
		PaymentMethod: draft.PaymentMethod,
		Counterparty:  draft.Counterparty,
		DocumentRef:   draft.DocumentRef,
		PeriodID:      periodID,
		CreatedAt:     now,
	}

	if err := s.store.PutTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("put transaction: %w", err)
	}
	s.invalidate(periodID)

	s.logger.Info("transaction booked",
		zap.String("transaction_id", tx.ID),
		zap.String("period_id", periodID),
		zap.String("type", string(tx.Type)),
		zap.Float64("amount", tx.Amount),
	)
	return tx, nil
}

// Get returns a single transaction by id.
func (s *LedgerService) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Get")
	defer span.End()

	return s.store.GetTransaction(ctx, id)
}

// Update merge-patches an existing transaction. Reversal entries are
// immutable, and originals that already have a reversal cannot be edited
// either so the audit trail stays intact.
func (s *LedgerService) Update(ctx context.Context, id string, patch *domain.TransactionPatch) (_ *domain.Transaction, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Update")
	defer span.End()
	defer s.track("update", time.Now(), &err)
	span.SetAttributes(attribute.String("transaction.id", id))

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IsReversal {
		return nil, &domain.ErrAlreadyReversal{ID: id}
	}
	if _, err := s.requireOpenPeriod(ctx, tx.PeriodID); err != nil {
		return nil, err
	}

	all, err := s.store.ListTransactions(ctx, tx.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if reversalID, ok := BuildCancellationIndex(all).ReversedBy(id); ok {
		return nil, &domain.ErrAlreadyReversed{ID: id, ReversalID: reversalID}
	}

	patch.Apply(tx)

	draft := domain.TransactionDraft{
		Date:          tx.Date,
		Type:          tx.Type,
		Description:   tx.Description,
		Amount:        tx.Amount,
		Category:      tx.Category,
		PaymentMethod: tx.PaymentMethod,
	}
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	if err := s.store.PutTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("put transaction: %w", err)
	}
	s.invalidate(tx.PeriodID)

	s.logger.Info("transaction updated", zap.String("transaction_id", id))
	return tx, nil
}

// Delete removes a transaction outright. Kept for corrections of plain
// mistakes; reversal is the audited cancellation path.
func (s *LedgerService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Delete")
	defer span.End()
	defer s.track("delete", time.Now(), &err)
	span.SetAttributes(attribute.String("transaction.id", id))

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.requireOpenPeriod(ctx, tx.PeriodID); err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.invalidate(tx.PeriodID)

	s.logger.Info("transaction deleted", zap.String("transaction_id", id))
	return nil
}

// Reverse books a compensating entry for the given transaction. The
// reversal carries the opposite type and the same amount, so the original's
// effect cancels out of every total while both entries stay on the books.
//
// The uniqueness check is read-then-write without a distributed lock; two
// concurrent calls for the same id can race. Accepted limitation.
func (s *LedgerService) Reverse(ctx context.Context, id string) (_ *domain.Transaction, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Reverse")
	defer span.End()
	defer s.track("reverse", time.Now(), &err)
	span.SetAttributes(attribute.String("transaction.id", id))

	orig, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		s.metrics.IncrReversal("error")
		return nil, err
	}
	if orig.IsReversal {
		s.metrics.IncrReversal("conflict")
		return nil, &domain.ErrAlreadyReversal{ID: id}
	}
	if _, err := s.requireOpenPeriod(ctx, orig.PeriodID); err != nil {
		s.metrics.IncrReversal("error")
		return nil, err
	}

	all, err := s.store.ListTransactions(ctx, orig.PeriodID)
	if err != nil {
		s.metrics.IncrReversal("error")
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if reversalID, ok := BuildCancellationIndex(all).ReversedBy(id); ok {
		s.metrics.IncrReversal("conflict")
		return nil, &domain.ErrAlreadyReversed{ID: id, ReversalID: reversalID}
	}

	now := time.Now()
	rev := &domain.Transaction{
		ID:                    newTransactionID(now),
		Date:                  now.Format("2006-01-02"), // booked today, never backdated
		Type:                  orig.Type.Opposite(),
		Description:           domain.ReversalPrefix + orig.Description,
		Amount:                orig.Amount,
		Category:              orig.Category,
		PaymentMethod:         orig.PaymentMethod,
		Counterparty:          orig.Counterparty,
		PeriodID:              orig.PeriodID,
		IsReversal:            true,
		ReversedTransactionID: orig.ID,
		CreatedAt:             now,
	}
	if orig.DocumentRef != "" {
		rev.DocumentRef = domain.ReversalRefPrefix + orig.DocumentRef
	}

	if err := s.store.PutTransaction(ctx, rev); err != nil {
		s.metrics.IncrReversal("error")
		return nil, fmt.Errorf("put reversal: %w", err)
	}
	s.invalidate(orig.PeriodID)
	s.metrics.IncrReversal("success")

	s.logger.Info("transaction reversed",
		zap.String("transaction_id", orig.ID),
		zap.String("reversal_id", rev.ID),
		zap.Float64("amount", rev.Amount),
	)
	return rev, nil
}

// ListByPeriod returns the period's transactions, booking date descending,
// creation timestamp descending on ties.
func (s *LedgerService) ListByPeriod(ctx context.Context, periodID string) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListByPeriod")
	defer span.End()
	span.SetAttributes(attribute.String("period.id", periodID))

	return s.store.ListTransactions(ctx, periodID)
}

// Subscribe registers fn for full-snapshot deliveries on every change to
// the period's transaction set. The returned handle stops delivery.
func (s *LedgerService) Subscribe(ctx context.Context, periodID string, fn port.SnapshotFunc) (port.Unsubscribe, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Subscribe")
	defer span.End()

	return s.store.SubscribeTransactions(ctx, periodID, fn)
}
