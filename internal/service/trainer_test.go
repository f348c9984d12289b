package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/pmarb/internal/classifier"
	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/store/memory"
)

// memModelStore is an in-memory domain.ModelStore for tests.
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

func confirmedWorld(t *testing.T) (*memory.MarketStore, *memory.MatchedPairStore) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)

	type entry struct {
		kalshiID string
		polyID   string
		name     string
		category string
	}
	entries := []entry{
		{"K1", "P1", "will trump win the 2028 election", "politics"},
		{"K2", "P2", "fed cuts rates in march", "economics"},
		{"K3", "P3", "chiefs win the super bowl", "sports"},
	}

	markets := memory.NewMarketStore()
	pairs := memory.NewMatchedPairStore()
	for _, e := range entries {
		a := testBinaryMarket(domain.SourceKalshi, e.kalshiID, e.name, e.category, &day)
		b := testBinaryMarket(domain.SourcePolymarket, e.polyID, e.name, e.category, &day)
		require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{a, b}))
		seedPair(t, pairs, a, b, 0.95)
		_, err := pairs.Confirm(ctx, a.Key(), b.Key(), "analyst", "")
		require.NoError(t, err)
	}
	return markets, pairs
}

func TestTrainFromConfirmed(t *testing.T) {
	ctx := context.Background()
	markets, pairs := confirmedWorld(t)
	models := newMemModelStore()
	clf := classifier.New()

	tr := NewTrainer(pairs, markets, models, clf, nil)
	metrics, err := tr.TrainFromConfirmed(ctx, "match_classifier.json")
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.Positives)
	assert.Equal(t, 3, metrics.Negatives)
	assert.Greater(t, metrics.Accuracy, 0.5)

	// The snapshot landed in the model store and restores cleanly.
	restored := classifier.New()
	fresh := NewTrainer(pairs, markets, models, restored, nil)
	require.NoError(t, fresh.LoadModel(ctx, "match_classifier.json"))

	a, err := markets.Get(ctx, domain.MarketKey{Source: domain.SourceKalshi, MarketID: "K1"})
	require.NoError(t, err)
	b, err := markets.Get(ctx, domain.MarketKey{Source: domain.SourcePolymarket, MarketID: "P1"})
	require.NoError(t, err)

	want, err := clf.Predict(a, b)
	require.NoError(t, err)
	got, err := restored.Predict(a, b)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTrainFromConfirmed_NoConfirmedPairs(t *testing.T) {
	tr := NewTrainer(memory.NewMatchedPairStore(), memory.NewMarketStore(), newMemModelStore(), classifier.New(), nil)
	_, err := tr.TrainFromConfirmed(context.Background(), "model.json")
	assert.ErrorIs(t, err, domain.ErrInsufficientTrainingData)
}

func TestLoadModel_Missing(t *testing.T) {
	tr := NewTrainer(memory.NewMatchedPairStore(), memory.NewMarketStore(), newMemModelStore(), classifier.New(), nil)
	err := tr.LoadModel(context.Background(), "absent.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeriveNegatives(t *testing.T) {
	mk := func(source domain.Source, id string) domain.Market {
		return domain.Market{Source: source, MarketID: id}
	}
	positives := []classifier.Pair{
		{A: mk(domain.SourceKalshi, "K1"), B: mk(domain.SourcePolymarket, "P1")},
		{A: mk(domain.SourceKalshi, "K2"), B: mk(domain.SourcePolymarket, "P2")},
		{A: mk(domain.SourceKalshi, "K3"), B: mk(domain.SourcePolymarket, "P3")},
	}

	negatives := deriveNegatives(positives)
	require.Len(t, negatives, 3)
	assert.Equal(t, "K1", negatives[0].A.MarketID)
	assert.Equal(t, "P2", negatives[0].B.MarketID)
	assert.Equal(t, "K3", negatives[2].A.MarketID)
	assert.Equal(t, "P1", negatives[2].B.MarketID)

	assert.Nil(t, deriveNegatives(positives[:1]))
	assert.Nil(t, deriveNegatives(nil))
}
