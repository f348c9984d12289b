package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/pmarb/internal/arbitrage"
	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/store/memory"
)

func arbMarket(source domain.Source, id string, yesAsk, noAsk float64) domain.Market {
	return domain.Market{
		Source:   source,
		MarketID: id,
		Name:     "market " + id,
		Contracts: []domain.Contract{
			{Source: source, MarketID: id, ContractID: id + "_yes", Side: "YES", Outcome: domain.OutcomeBinary, AskPrice: domain.Ptr(yesAsk)},
			{Source: source, MarketID: id, ContractID: id + "_no", Side: "NO", Outcome: domain.OutcomeBinary, AskPrice: domain.Ptr(noAsk)},
		},
	}
}

func seedPair(t *testing.T, pairs *memory.MatchedPairStore, a, b domain.Market, similarity float64) {
	t.Helper()
	_, err := pairs.Upsert(context.Background(), domain.MatchedPair{
		SourceA:    a.Source,
		MarketIDA:  a.MarketID,
		SourceB:    b.Source,
		MarketIDB:  b.MarketID,
		Similarity: similarity,
	})
	require.NoError(t, err)
}

func TestDetectOpportunities(t *testing.T) {
	ctx := context.Background()

	a := arbMarket(domain.SourceKalshi, "K1", 0.40, 0.65)
	b := arbMarket(domain.SourcePolymarket, "P1", 0.55, 0.30)

	markets := memory.NewMarketStore()
	require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{a, b}))

	pairs := memory.NewMatchedPairStore()
	seedPair(t, pairs, a, b, 0.9)

	svc := NewArbService(pairs, markets, nil, arbitrage.New(arbitrage.DefaultConfig(), nil), nil, nil)

	opps, err := svc.DetectOpportunities(ctx, -1)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.InDelta(t, 0.30, opps[0].MinProfit, 1e-9)
	assert.True(t, opps[0].IsArbitrage)
}

func TestDetectOpportunities_NoPairs(t *testing.T) {
	svc := NewArbService(
		memory.NewMatchedPairStore(), memory.NewMarketStore(), nil,
		arbitrage.New(arbitrage.DefaultConfig(), nil), nil, nil,
	)

	opps, err := svc.DetectOpportunities(context.Background(), -1)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetectOpportunities_MissingMarketSkipped(t *testing.T) {
	ctx := context.Background()

	a := arbMarket(domain.SourceKalshi, "K1", 0.40, 0.65)
	ghost := arbMarket(domain.SourcePolymarket, "P-gone", 0.55, 0.30)

	markets := memory.NewMarketStore()
	require.NoError(t, markets.Upsert(ctx, a)) // P-gone never stored

	pairs := memory.NewMatchedPairStore()
	seedPair(t, pairs, a, ghost, 0.9)

	svc := NewArbService(pairs, markets, nil, arbitrage.New(arbitrage.DefaultConfig(), nil), nil, nil)

	opps, err := svc.DetectOpportunities(ctx, -1)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestFindBest(t *testing.T) {
	ctx := context.Background()

	a1 := arbMarket(domain.SourceKalshi, "K1", 0.40, 0.40)
	b1 := arbMarket(domain.SourcePolymarket, "P1", 0.45, 0.45)
	a2 := arbMarket(domain.SourceKalshi, "K2", 0.30, 0.30)
	b2 := arbMarket(domain.SourcePolymarket, "P2", 0.35, 0.35)

	markets := memory.NewMarketStore()
	require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{a1, b1, a2, b2}))

	pairs := memory.NewMatchedPairStore()
	seedPair(t, pairs, a1, b1, 0.9)
	seedPair(t, pairs, a2, b2, 0.9)

	svc := NewArbService(pairs, markets, nil, arbitrage.New(arbitrage.DefaultConfig(), nil), nil, nil)

	best, err := svc.FindBest(ctx, 1)
	require.NoError(t, err)
	require.Len(t, best, 1)
	assert.Equal(t, "K2", best[0].MarketIDA)
}
