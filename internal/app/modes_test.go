package app

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/pmarb/internal/classifier"
	"github.com/quantfold/pmarb/internal/config"
	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/service"
	"github.com/quantfold/pmarb/internal/store/memory"
)

// memModelStore is an in-memory domain.ModelStore for mode tests.
type memModelStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemModelStore() *memModelStore {
	return &memModelStore{blobs: make(map[string][]byte)}
}

func (s *memModelStore) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (s *memModelStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func binaryMarket(source domain.Source, id, name, category string, eventTime *time.Time) domain.Market {
	return domain.Market{
		Source:    source,
		MarketID:  id,
		Name:      name,
		Category:  category,
		EventTime: eventTime,
		Contracts: []domain.Contract{
			{Source: source, MarketID: id, ContractID: id + "_yes", Side: "YES", Outcome: domain.OutcomeBinary, AskPrice: domain.Ptr(0.4)},
			{Source: source, MarketID: id, ContractID: id + "_no", Side: "NO", Outcome: domain.OutcomeBinary, AskPrice: domain.Ptr(0.62)},
		},
	}
}

func confirmedPairDeps(t *testing.T) (*Dependencies, *memModelStore) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)

	entries := []struct {
		kalshiID, polyID, name, category string
	}{
		{"K1", "P1", "will trump win the 2028 election", "politics"},
		{"K2", "P2", "fed cuts rates in march", "economics"},
		{"K3", "P3", "chiefs win the super bowl", "sports"},
	}

	markets := memory.NewMarketStore()
	pairs := memory.NewMatchedPairStore()
	for _, e := range entries {
		a := binaryMarket(domain.SourceKalshi, e.kalshiID, e.name, e.category, &day)
		b := binaryMarket(domain.SourcePolymarket, e.polyID, e.name, e.category, &day)
		require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{a, b}))
		_, err := pairs.Upsert(ctx, domain.MatchedPair{
			SourceA: a.Source, MarketIDA: a.MarketID,
			SourceB: b.Source, MarketIDB: b.MarketID,
			Similarity: 0.95,
		})
		require.NoError(t, err)
		_, err = pairs.Confirm(ctx, a.Key(), b.Key(), "analyst", "")
		require.NoError(t, err)
	}

	models := newMemModelStore()
	trainer := service.NewTrainer(pairs, markets, models, classifier.New(), nil)
	return &Dependencies{
		MarketStore:      markets,
		MatchedPairStore: pairs,
		ModelStore:       models,
		Trainer:          trainer,
	}, models
}

func newTestApp(cfg config.Config) *App {
	return New(&cfg, slog.New(slog.DiscardHandler))
}

func TestTrainMode(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Mode = "train"

	deps, models := confirmedPairDeps(t)
	a := newTestApp(cfg)

	require.NoError(t, a.TrainMode(ctx, deps))

	// The trained snapshot landed in the model store under the configured
	// name and restores into a usable classifier.
	data, err := models.Get(ctx, cfg.S3.ModelName)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	restored := service.NewTrainer(
		deps.MatchedPairStore, deps.MarketStore, models, classifier.New(), nil,
	)
	require.NoError(t, restored.LoadModel(ctx, cfg.S3.ModelName))
}

func TestTrainMode_NoModelStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "train"

	a := newTestApp(cfg)
	err := a.TrainMode(context.Background(), &Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model store")
}

func TestTrainMode_NoConfirmedPairs(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Mode = "train"

	trainer := service.NewTrainer(
		memory.NewMatchedPairStore(), memory.NewMarketStore(),
		newMemModelStore(), classifier.New(), nil,
	)
	a := newTestApp(cfg)

	err := a.TrainMode(ctx, &Dependencies{Trainer: trainer})
	assert.ErrorIs(t, err, domain.ErrInsufficientTrainingData)
}
