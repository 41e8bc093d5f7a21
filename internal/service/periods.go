package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/port"
)

var periodTracer = otel.Tracer("service/period")

// summaryCache is the cache surface the period service needs: per-period
// invalidation plus a full flush when the current period switches.
type summaryCache interface {
	port.Cache[domain.PeriodSummary]
	Flush()
}

// PeriodService manages accounting periods (exercices), the current-period
// setting and the company configuration records.
type PeriodService struct {
	store  port.LedgerStore
	cache  summaryCache
	logger *zap.Logger
}

// NewPeriodService creates a new period service.
func NewPeriodService(store port.LedgerStore, cache summaryCache, logger *zap.Logger) *PeriodService {
	return &PeriodService{store: store, cache: cache, logger: logger}
}

// PeriodDraft carries the user-supplied fields of a new period.
type PeriodDraft struct {
	Year               int     `json:"year"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	OpeningBankBalance float64 `json:"opening_bank_balance"`
}

func validatePeriodDraft(d *PeriodDraft) error {
	if d.Year < 1900 || d.Year > 2999 {
		return &domain.ErrValidation{Field: "year", Message: "year out of range"}
	}
	start, err := time.Parse("2006-01-02", d.StartDate)
	if err != nil {
		return &domain.ErrValidation{Field: "start_date", Message: "start date must be YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", d.EndDate)
	if err != nil {
		return &domain.ErrValidation{Field: "end_date", Message: "end date must be YYYY-MM-DD"}
	}
	if !start.Before(end) {
		return &domain.ErrValidation{Field: "end_date", Message: "end date must be after start date"}
	}
	return nil
}

// Create opens a new accounting period. The first period created becomes
// the current one when none is set yet.
func (s *PeriodService) Create(ctx context.Context, draft *PeriodDraft) (*domain.Period, error) {
	ctx, span := periodTracer.Start(ctx, "PeriodService.Create")
	defer span.End()
	span.SetAttributes(attribute.Int("period.year", draft.Year))

	if err := validatePeriodDraft(draft); err != nil {
		return nil, err
	}

	p := &domain.Period{
		ID:                 fmt.Sprintf("period-%d-%s", draft.Year, strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		Year:               draft.Year,
		StartDate:          draft.StartDate,
		EndDate:            draft.EndDate,
		OpeningBankBalance: draft.OpeningBankBalance,
	}
	if err := s.store.PutPeriod(ctx, p); err != nil {
		return nil, fmt.Errorf("put period: %w", err)
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings == nil || settings.CurrentPeriodID == "" {
		if err := s.store.SetSettings(ctx, &domain.Settings{CurrentPeriodID: p.ID}); err != nil {
			return nil, fmt.Errorf("set settings: %w", err)
		}
	}

	s.logger.Info("period created",
		zap.String("period_id", p.ID),
		zap.Int("year", p.Year),
	)
	return p, nil
}

// Get returns one period by id.
func (s *PeriodService) Get(ctx context.Context, id string) (*domain.Period, error) {
	ctx, span := periodTracer.Start(ctx, "PeriodService.Get")
	defer span.End()

	return s.store.GetPeriod(ctx, id)
}

// List returns all periods, most recent year first.
func (s *PeriodService) List(ctx context.Context) ([]domain.Period, error) {
	ctx, span := periodTracer.Start(ctx, "PeriodService.List")
	defer span.End()

	return s.store.ListPeriods(ctx)
}

// Close closes a period. Closing is one-way: a closed period rejects every
// further transaction write.
func (s *PeriodService) Close(ctx context.Context, id string) (*domain.Period, error) {
	ctx, span := periodTracer.Start(ctx, "PeriodService.Close")
	defer span.End()
	span.SetAttributes(attribute.String("period.id", id))

	p, err := s.store.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Closed {
		return p, nil // idempotent
	}

	p.Closed = true
	if err := s.store.PutPeriod(ctx, p); err != nil {
		return nil, fmt.Errorf("put period: %w", err)
	}
	s.cache.Delete(summaryCacheKey(id))

	s.logger.Info("period closed", zap.String("period_id", id))
	return p, nil
}

// CurrentPeriod resolves the period the settings record points at.
func (s *PeriodService) CurrentPeriod(ctx context.Context) (*domain.Period, error) {
	ctx, span := periodTracer.Start(ctx, "PeriodService.CurrentPeriod")
	defer span.End()

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings == nil || settings.CurrentPeriodID == "" {
		return nil, &domain.ErrNotFound{Resource: "current period", ID: ""}
	}
	return s.store.GetPeriod(ctx, settings.CurrentPeriodID)
}

// SetCurrentPeriod switches the current period and flushes memoized
// summaries.
func (s *PeriodService) SetCurrentPeriod(ctx context.Context, periodID string) error {
	ctx, span := periodTracer.Start(ctx, "PeriodService.SetCurrentPeriod")
	defer span.End()
	span.SetAttributes(attribute.String("period.id", periodID))

	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return err
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}
	if settings == nil {
		settings = &domain.Settings{}
	}
	settings.CurrentPeriodID = periodID
	settings.FirstLaunch = false
	if err := s.store.SetSettings(ctx, settings); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}
	s.cache.Flush()

	s.logger.Info("current period switched", zap.String("period_id", periodID))
	return nil
}

// ============================================================
// Company info & categories
// ============================================================

// CompanyInfo returns the company record, or an empty one when nothing has
// been saved yet.
func (s *PeriodService) CompanyInfo(ctx context.Context) (*domain.CompanyInfo, error) {
	ctx, span := periodTracer.Start(ctx, "PeriodService.CompanyInfo")
	defer span.End()

	info, err := s.store.GetCompanyInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get company info: %w", err)
	}
	if info == nil {
		info = &domain.CompanyInfo{}
	}
	return info, nil
}

// SetCompanyInfo saves the company record. InitialCapital feeds the balance
// sheet, so memoized summaries are unaffected but statements pick the new
// value up on the next computation.
func (s *PeriodService) SetCompanyInfo(ctx context.Context, info *domain.CompanyInfo) error {
	ctx, span := periodTracer.Start(ctx, "PeriodService.SetCompanyInfo")
	defer span.End()

	if info.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "company name is required"}
	}
	if err := s.store.SetCompanyInfo(ctx, info); err != nil {
		return fmt.Errorf("set company info: %w", err)
	}

	s.logger.Info("company info updated", zap.String("name", info.Name))
	return nil
}

// Categories returns the built-in bookkeeping taxonomy.
func (s *PeriodService) Categories() []domain.Category {
	return domain.DefaultCategories
}
