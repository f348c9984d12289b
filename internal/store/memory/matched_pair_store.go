package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quantfold/pmarb/internal/domain"
)

type pairKey struct {
	a domain.MarketKey
	b domain.MarketKey
}

// MatchedPairStore is an in-memory implementation of domain.MatchedPairStore.
// All writes canonicalize the pair ordering, so saving (A, B) after (B, A)
// updates the same record.
type MatchedPairStore struct {
	mu     sync.RWMutex
	data   map[pairKey]domain.MatchedPair
	nextID int64
	now    func() time.Time
}

// NewMatchedPairStore creates an empty in-memory matched-pair store.
func NewMatchedPairStore() *MatchedPairStore {
	return &MatchedPairStore{
		data:   make(map[pairKey]domain.MatchedPair),
		nextID: 1,
		now:    time.Now,
	}
}

func canonicalKey(a, b domain.MarketKey) pairKey {
	ca, cb := domain.CanonicalPairKey(a, b)
	return pairKey{a: ca, b: cb}
}

// Upsert inserts or updates the canonical record for the pair. Confirmation
// fields are preserved across score updates.
func (s *MatchedPairStore) Upsert(_ context.Context, pair domain.MatchedPair) (domain.MatchedPair, error) {
	key := canonicalKey(
		domain.MarketKey{Source: pair.SourceA, MarketID: pair.MarketIDA},
		domain.MarketKey{Source: pair.SourceB, MarketID: pair.MarketIDB},
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	existing, ok := s.data[key]
	if !ok {
		existing = domain.MatchedPair{ID: s.nextID, CreatedAt: now}
		s.nextID++
	}

	existing.SourceA, existing.MarketIDA = key.a.Source, key.a.MarketID
	existing.SourceB, existing.MarketIDB = key.b.Source, key.b.MarketID
	existing.Similarity = pair.Similarity
	existing.NameSimilarity = pair.NameSimilarity
	existing.CategorySimilarity = pair.CategorySimilarity
	existing.ContractSimilarity = pair.ContractSimilarity
	existing.TemporalProximity = pair.TemporalProximity
	if pair.ClassifierProbability != nil {
		p := *pair.ClassifierProbability
		existing.ClassifierProbability = &p
	}
	if pair.Notes != "" {
		existing.Notes = pair.Notes
	}
	existing.UpdatedAt = now

	s.data[key] = existing
	return existing, nil
}

// Confirm marks the canonical pair as manually verified.
func (s *MatchedPairStore) Confirm(_ context.Context, a, b domain.MarketKey, confirmedBy, notes string) (domain.MatchedPair, error) {
	key := canonicalKey(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()

	pair, ok := s.data[key]
	if !ok {
		return domain.MatchedPair{}, domain.ErrNotFound
	}

	now := s.now().UTC()
	pair.Confirmed = true
	pair.ConfirmedBy = confirmedBy
	pair.ConfirmedAt = &now
	if notes != "" {
		pair.Notes = notes
	}
	pair.UpdatedAt = now

	s.data[key] = pair
	return pair, nil
}

// Get returns the canonical record for the pair in either key order.
func (s *MatchedPairStore) Get(_ context.Context, a, b domain.MarketKey) (domain.MatchedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.data[canonicalKey(a, b)]
	if !ok {
		return domain.MatchedPair{}, domain.ErrNotFound
	}
	return pair, nil
}

// List returns pairs passing the filter, sorted by similarity descending.
func (s *MatchedPairStore) List(_ context.Context, filter domain.MatchedPairFilter) ([]domain.MatchedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MatchedPair
	for _, pair := range s.data {
		if pair.Similarity < filter.MinSimilarity {
			continue
		}
		if filter.ConfirmedOnly && !pair.Confirmed {
			continue
		}
		if filter.Source != "" && pair.SourceA != filter.Source && pair.SourceB != filter.Source {
			continue
		}
		out = append(out, pair)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}
