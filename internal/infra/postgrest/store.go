package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/port"

	"go.uber.org/zap"
)

// Store implements port.LedgerStore over a PostgREST API.
type Store struct {
	client       *Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewStore wraps a PostgREST client. pollInterval drives the subscription
// poll loop.
func NewStore(client *Client, pollInterval time.Duration, logger *zap.Logger) *Store {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Store{client: client, pollInterval: pollInterval, logger: logger}
}

var _ port.LedgerStore = (*Store)(nil)

func (s *Store) wrap(err error) error {
	return &domain.ErrExternalService{Service: "postgrest", Err: err}
}

// --- Transactions ---

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("%s?id=eq.%s&limit=1", tableTransactions, url.QueryEscape(id))
	rows, err := getList[domain.Transaction](ctx, s.client, path)
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return &rows[0], nil
}

func (s *Store) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Postgrest.PutTransaction")
	defer span.End()

	if err := s.client.upsert(ctx, tableTransactions, tx); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgrest.DeleteTransaction")
	defer span.End()

	var deleted []domain.Transaction
	err := s.client.execute(ctx, func() error {
		path := fmt.Sprintf("%s?id=eq.%s", tableTransactions, url.QueryEscape(id))
		body, err := s.client.doRequest(ctx, http.MethodDelete, path, nil, "return=representation")
		if err != nil {
			return err
		}
		deleted = nil
		if len(body) == 0 {
			return nil
		}
		return json.Unmarshal(body, &deleted)
	})
	if err != nil {
		return s.wrap(err)
	}
	if len(deleted) == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, periodID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListTransactions")
	defer span.End()

	path := fmt.Sprintf("%s?period_id=eq.%s&order=date.desc,created_at.desc",
		tableTransactions, url.QueryEscape(periodID))
	rows, err := getList[domain.Transaction](ctx, s.client, path)
	if err != nil {
		return nil, s.wrap(err)
	}
	if rows == nil {
		rows = []domain.Transaction{}
	}
	return rows, nil
}

// SubscribeTransactions polls the transaction set and pushes a full
// snapshot whenever it changes. PostgREST exposes no change feed, so the
// poll loop stands in for the document-store listener; consumers see the
// same contract either way.
func (s *Store) SubscribeTransactions(ctx context.Context, periodID string, fn port.SnapshotFunc) (port.Unsubscribe, error) {
	first, err := s.ListTransactions(ctx, periodID)
	if err != nil {
		return nil, err
	}

	sub := &pollSub{fn: fn}
	sub.deliver(first)

	stop := make(chan struct{})
	go s.pollLoop(periodID, sub, fingerprint(first), stop)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			close(stop)
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
		})
	}
	return unsub, nil
}

type pollSub struct {
	mu     sync.Mutex
	fn     port.SnapshotFunc
	closed bool
}

func (p *pollSub) deliver(snapshot []domain.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.fn(snapshot)
}

func (s *Store) pollLoop(periodID string, sub *pollSub, lastFP string, stop <-chan struct{}) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.pollInterval)
		snapshot, err := s.ListTransactions(ctx, periodID)
		cancel()
		if err != nil {
			s.logger.Warn("postgrest: subscription poll failed",
				zap.String("period_id", periodID),
				zap.Error(err),
			)
			continue
		}

		fp := fingerprint(snapshot)
		if fp == lastFP {
			continue
		}
		lastFP = fp
		sub.deliver(snapshot)
	}
}

// fingerprint serializes a snapshot for change detection between polls.
func fingerprint(txs []domain.Transaction) string {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(txs)
	return buf.String()
}

// --- Periods ---

func (s *Store) GetPeriod(ctx context.Context, id string) (*domain.Period, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetPeriod")
	defer span.End()

	path := fmt.Sprintf("%s?id=eq.%s&limit=1", tablePeriods, url.QueryEscape(id))
	rows, err := getList[domain.Period](ctx, s.client, path)
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "period", ID: id}
	}
	return &rows[0], nil
}

func (s *Store) PutPeriod(ctx context.Context, p *domain.Period) error {
	ctx, span := tracer.Start(ctx, "Postgrest.PutPeriod")
	defer span.End()

	if err := s.client.upsert(ctx, tablePeriods, p); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]domain.Period, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.ListPeriods")
	defer span.End()

	path := fmt.Sprintf("%s?order=year.desc", tablePeriods)
	rows, err := getList[domain.Period](ctx, s.client, path)
	if err != nil {
		return nil, s.wrap(err)
	}
	if rows == nil {
		rows = []domain.Period{}
	}
	return rows, nil
}

// --- Company info / settings (singleton rows) ---

func (s *Store) GetCompanyInfo(ctx context.Context) (*domain.CompanyInfo, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetCompanyInfo")
	defer span.End()

	rows, err := getList[domain.CompanyInfo](ctx, s.client, tableCompanyInfo+"?id=eq.info&limit=1")
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) SetCompanyInfo(ctx context.Context, info *domain.CompanyInfo) error {
	ctx, span := tracer.Start(ctx, "Postgrest.SetCompanyInfo")
	defer span.End()

	row, err := singletonRow("info", info)
	if err != nil {
		return err
	}
	if err := s.client.upsert(ctx, tableCompanyInfo, row); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	ctx, span := tracer.Start(ctx, "Postgrest.GetSettings")
	defer span.End()

	rows, err := getList[domain.Settings](ctx, s.client, tableSettings+"?id=eq.app&limit=1")
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) SetSettings(ctx context.Context, st *domain.Settings) error {
	ctx, span := tracer.Start(ctx, "Postgrest.SetSettings")
	defer span.End()

	row, err := singletonRow("app", st)
	if err != nil {
		return err
	}
	if err := s.client.upsert(ctx, tableSettings, row); err != nil {
		return s.wrap(err)
	}
	return nil
}

// singletonRow flattens a record into a map with the fixed primary key the
// singleton tables use.
func singletonRow(id string, record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	row := map[string]any{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	row["id"] = id
	return row, nil
}
