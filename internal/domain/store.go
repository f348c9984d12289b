package domain

import "context"

// MatchedPairFilter narrows MatchedPairStore list queries.
type MatchedPairFilter struct {
	MinSimilarity float64
	Source        Source // match either side of the pair; empty = all
	ConfirmedOnly bool
	Limit         int
}

// MarketStore persists market snapshots together with their contracts.
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	UpsertBatch(ctx context.Context, markets []Market) error
	Get(ctx context.Context, key MarketKey) (Market, error)
	ListBySource(ctx context.Context, source Source) ([]Market, error)
	ListAll(ctx context.Context) ([]Market, error)
}

// MatchedPairStore persists cross-platform matched pairs. Upsert must
// canonicalize the pair ordering via CanonicalPairKey so that saving
// (A, B) and (B, A) updates the same record.
type MatchedPairStore interface {
	Upsert(ctx context.Context, pair MatchedPair) (MatchedPair, error)
	Confirm(ctx context.Context, a, b MarketKey, confirmedBy, notes string) (MatchedPair, error)
	Get(ctx context.Context, a, b MarketKey) (MatchedPair, error)
	List(ctx context.Context, filter MatchedPairFilter) ([]MatchedPair, error)
}

// MarketCache is a short-lived read-through cache for market snapshots.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, key MarketKey) (Market, error)
	SetAll(ctx context.Context, markets []Market) error
}

// ModelStore persists trained classifier snapshots as opaque blobs.
type ModelStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}
