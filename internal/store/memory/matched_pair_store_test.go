package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/pmarb/internal/domain"
)

func samplePair(similarity float64) domain.MatchedPair {
	return domain.MatchedPair{
		SourceA:            domain.SourceKalshi,
		MarketIDA:          "K1",
		SourceB:            domain.SourcePolymarket,
		MarketIDB:          "P1",
		Similarity:         similarity,
		NameSimilarity:     similarity,
		CategorySimilarity: 1,
		ContractSimilarity: 1,
		TemporalProximity:  1,
	}
}

func TestMatchedPairStore_UpsertCanonicalizes(t *testing.T) {
	ctx := context.Background()
	s := NewMatchedPairStore()

	first, err := s.Upsert(ctx, samplePair(0.8))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, domain.SourceKalshi, first.SourceA)
	assert.Equal(t, domain.SourcePolymarket, first.SourceB)
	assert.False(t, first.CreatedAt.IsZero())

	// Saving the reversed pair updates the same canonical record.
	reversed := samplePair(0.9)
	reversed.SourceA, reversed.SourceB = reversed.SourceB, reversed.SourceA
	reversed.MarketIDA, reversed.MarketIDB = reversed.MarketIDB, reversed.MarketIDA

	second, err := s.Upsert(ctx, reversed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.SourceKalshi, second.SourceA)
	assert.Equal(t, "K1", second.MarketIDA)
	assert.Equal(t, 0.9, second.Similarity)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := s.List(ctx, domain.MatchedPairFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMatchedPairStore_UpsertPreservesConfirmation(t *testing.T) {
	ctx := context.Background()
	s := NewMatchedPairStore()

	_, err := s.Upsert(ctx, samplePair(0.8))
	require.NoError(t, err)

	keyA := domain.MarketKey{Source: domain.SourceKalshi, MarketID: "K1"}
	keyB := domain.MarketKey{Source: domain.SourcePolymarket, MarketID: "P1"}
	_, err = s.Confirm(ctx, keyA, keyB, "analyst", "checked manually")
	require.NoError(t, err)

	updated, err := s.Upsert(ctx, samplePair(0.95))
	require.NoError(t, err)
	assert.True(t, updated.Confirmed)
	assert.Equal(t, "analyst", updated.ConfirmedBy)
	require.NotNil(t, updated.ConfirmedAt)
	assert.Equal(t, "checked manually", updated.Notes)
	assert.Equal(t, 0.95, updated.Similarity)
}

func TestMatchedPairStore_UpsertClassifierProbability(t *testing.T) {
	ctx := context.Background()
	s := NewMatchedPairStore()

	withProb := samplePair(0.8)
	withProb.ClassifierProbability = domain.Ptr(0.91)
	saved, err := s.Upsert(ctx, withProb)
	require.NoError(t, err)
	require.NotNil(t, saved.ClassifierProbability)
	assert.Equal(t, 0.91, *saved.ClassifierProbability)

	// A later heuristic-only update keeps the stored probability.
	saved, err = s.Upsert(ctx, samplePair(0.85))
	require.NoError(t, err)
	require.NotNil(t, saved.ClassifierProbability)
	assert.Equal(t, 0.91, *saved.ClassifierProbability)
}

func TestMatchedPairStore_GetEitherOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMatchedPairStore()
	_, err := s.Upsert(ctx, samplePair(0.8))
	require.NoError(t, err)

	keyA := domain.MarketKey{Source: domain.SourceKalshi, MarketID: "K1"}
	keyB := domain.MarketKey{Source: domain.SourcePolymarket, MarketID: "P1"}

	got, err := s.Get(ctx, keyA, keyB)
	require.NoError(t, err)
	flipped, err := s.Get(ctx, keyB, keyA)
	require.NoError(t, err)
	assert.Equal(t, got.ID, flipped.ID)
}

func TestMatchedPairStore_ConfirmMissing(t *testing.T) {
	s := NewMatchedPairStore()
	_, err := s.Confirm(context.Background(),
		domain.MarketKey{Source: domain.SourceKalshi, MarketID: "nope"},
		domain.MarketKey{Source: domain.SourcePolymarket, MarketID: "also-nope"},
		"analyst", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchedPairStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMatchedPairStore()

	pairs := []domain.MatchedPair{
		{SourceA: domain.SourceKalshi, MarketIDA: "K1", SourceB: domain.SourcePolymarket, MarketIDB: "P1", Similarity: 0.9},
		{SourceA: domain.SourceKalshi, MarketIDA: "K2", SourceB: domain.SourcePolymarket, MarketIDB: "P2", Similarity: 0.6},
		{SourceA: domain.SourcePolymarket, MarketIDA: "P3", SourceB: domain.SourcePredictIt, MarketIDB: "PI3", Similarity: 0.8},
	}
	for _, p := range pairs {
		_, err := s.Upsert(ctx, p)
		require.NoError(t, err)
	}
	_, err := s.Confirm(ctx,
		domain.MarketKey{Source: domain.SourceKalshi, MarketID: "K1"},
		domain.MarketKey{Source: domain.SourcePolymarket, MarketID: "P1"},
		"analyst", "")
	require.NoError(t, err)

	// Similarity floor, sorted descending.
	got, err := s.List(ctx, domain.MatchedPairFilter{MinSimilarity: 0.7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.9, got[0].Similarity)
	assert.Equal(t, 0.8, got[1].Similarity)

	// Confirmed only.
	got, err = s.List(ctx, domain.MatchedPairFilter{ConfirmedOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "K1", got[0].MarketIDA)

	// Source filter matches either side.
	got, err = s.List(ctx, domain.MatchedPairFilter{Source: domain.SourcePredictIt})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PI3", got[0].MarketIDB)

	// Limit applies after sorting.
	got, err = s.List(ctx, domain.MatchedPairFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].Similarity)
}
