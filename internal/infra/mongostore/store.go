// Package mongostore implements the ledger store on MongoDB. Documents map
// one-to-one to the domain records; subscriptions are interval polls that
// deliver full snapshots, same contract as the PostgREST adapter.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/domain"
	"github.com/rakotomalala/compta-pme-go/internal/port"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("mongostore")

const (
	transactionsCollection = "transactions"
	periodsCollection      = "periods"
	configCollection       = "config"

	companyDocID  = "company_info"
	settingsDocID = "settings"
)

// Store implements port.LedgerStore on a Mongo database.
type Store struct {
	db           *mongo.Database
	pollInterval time.Duration
	logger       *zap.Logger
}

// New creates a Mongo-backed ledger store.
func New(db *mongo.Database, pollInterval time.Duration, logger *zap.Logger) *Store {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Store{db: db, pollInterval: pollInterval, logger: logger}
}

// Connect dials the Mongo deployment and pings it before returning the
// database handle.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(database), nil
}

var _ port.LedgerStore = (*Store)(nil)

func (s *Store) wrap(err error) error {
	return &domain.ErrExternalService{Service: "mongo", Err: err}
}

// --- Transactions ---

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Mongo.GetTransaction")
	defer span.End()

	var tx domain.Transaction
	err := s.db.Collection(transactionsCollection).
		FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &tx, nil
}

func (s *Store) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Mongo.PutTransaction")
	defer span.End()

	_, err := s.db.Collection(transactionsCollection).ReplaceOne(
		ctx,
		bson.M{"_id": tx.ID},
		tx,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Mongo.DeleteTransaction")
	defer span.End()

	res, err := s.db.Collection(transactionsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return s.wrap(err)
	}
	if res.DeletedCount == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, periodID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ListTransactions")
	defer span.End()

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cursor, err := s.db.Collection(transactionsCollection).
		Find(ctx, bson.M{"period_id": periodID}, opts)
	if err != nil {
		return nil, s.wrap(err)
	}
	defer cursor.Close(ctx)

	out := []domain.Transaction{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, s.wrap(err)
	}
	return out, nil
}

// SubscribeTransactions polls the period's transaction set and pushes a
// full snapshot whenever it changes.
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
			s.logger.Warn("mongo: subscription poll failed",
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

func fingerprint(txs []domain.Transaction) string {
	raw, _ := json.Marshal(txs)
	return string(raw)
}

// --- Periods ---

func (s *Store) GetPeriod(ctx context.Context, id string) (*domain.Period, error) {
	ctx, span := tracer.Start(ctx, "Mongo.GetPeriod")
	defer span.End()

	var p domain.Period
	err := s.db.Collection(periodsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &domain.ErrNotFound{Resource: "period", ID: id}
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &p, nil
}

func (s *Store) PutPeriod(ctx context.Context, p *domain.Period) error {
	ctx, span := tracer.Start(ctx, "Mongo.PutPeriod")
	defer span.End()

	_, err := s.db.Collection(periodsCollection).ReplaceOne(
		ctx,
		bson.M{"_id": p.ID},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]domain.Period, error) {
	ctx, span := tracer.Start(ctx, "Mongo.ListPeriods")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}})
	cursor, err := s.db.Collection(periodsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, s.wrap(err)
	}
	defer cursor.Close(ctx)

	out := []domain.Period{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, s.wrap(err)
	}
	return out, nil
}

// --- Company info / settings (singleton documents) ---

type companyDoc struct {
	ID                 string `bson:"_id"`
	domain.CompanyInfo `bson:",inline"`
}

type settingsDoc struct {
	ID              string `bson:"_id"`
	domain.Settings `bson:",inline"`
}

func (s *Store) GetCompanyInfo(ctx context.Context) (*domain.CompanyInfo, error) {
	ctx, span := tracer.Start(ctx, "Mongo.GetCompanyInfo")
	defer span.End()

	var doc companyDoc
	err := s.db.Collection(configCollection).FindOne(ctx, bson.M{"_id": companyDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &doc.CompanyInfo, nil
}

func (s *Store) SetCompanyInfo(ctx context.Context, info *domain.CompanyInfo) error {
	ctx, span := tracer.Start(ctx, "Mongo.SetCompanyInfo")
	defer span.End()

	_, err := s.db.Collection(configCollection).ReplaceOne(
		ctx,
		bson.M{"_id": companyDocID},
		companyDoc{ID: companyDocID, CompanyInfo: *info},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	ctx, span := tracer.Start(ctx, "Mongo.GetSettings")
	defer span.End()

	var doc settingsDoc
	err := s.db.Collection(configCollection).FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(err)
	}
	return &doc.Settings, nil
}

func (s *Store) SetSettings(ctx context.Context, st *domain.Settings) error {
	ctx, span := tracer.Start(ctx, "Mongo.SetSettings")
	defer span.End()

	_, err := s.db.Collection(configCollection).ReplaceOne(
		ctx,
		bson.M{"_id": settingsDocID},
		settingsDoc{ID: settingsDocID, Settings: *st},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return s.wrap(err)
	}
	return nil
}
