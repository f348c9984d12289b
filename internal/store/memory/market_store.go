// Package memory provides in-memory store implementations for tests and
// database-less runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/quantfold/pmarb/internal/domain"
)

// MarketStore is an in-memory implementation of domain.MarketStore.
type MarketStore struct {
	mu   sync.RWMutex
	data map[domain.MarketKey]domain.Market
}

// NewMarketStore creates an empty in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{data: make(map[domain.MarketKey]domain.Market)}
}

// Upsert inserts or replaces a market snapshot.
func (s *MarketStore) Upsert(_ context.Context, market domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[market.Key()] = market
	return nil
}

// UpsertBatch inserts or replaces multiple markets.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	for _, m := range markets {
		if err := s.Upsert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the market for the given key or domain.ErrNotFound.
func (s *MarketStore) Get(_ context.Context, key domain.MarketKey) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[key]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

// ListBySource returns all markets for one platform, ordered by market ID.
func (s *MarketStore) ListBySource(_ context.Context, source domain.Source) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Market
	for k, m := range s.data {
		if k.Source == source {
			out = append(out, m)
		}
	}
	sortMarkets(out)
	return out, nil
}

// ListAll returns every stored market, ordered by (source, market ID).
func (s *MarketStore) ListAll(_ context.Context) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Market, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, m)
	}
	sortMarkets(out)
	return out, nil
}

func sortMarkets(markets []domain.Market) {
	sort.Slice(markets, func(i, j int) bool {
		if markets[i].Source != markets[j].Source {
			return markets[i].Source < markets[j].Source
		}
		return markets[i].MarketID < markets[j].MarketID
	})
}
