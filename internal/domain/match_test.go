package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPairKey(t *testing.T) {
	kalshi := MarketKey{Source: SourceKalshi, MarketID: "K1"}
	poly := MarketKey{Source: SourcePolymarket, MarketID: "P1"}

	cases := []struct {
		name  string
		a, b  MarketKey
		wantA MarketKey
		wantB MarketKey
	}{
		{"already ordered", kalshi, poly, kalshi, poly},
		{"reversed sources", poly, kalshi, kalshi, poly},
		{
			"same source ordered by market id",
			MarketKey{Source: SourceKalshi, MarketID: "B"},
			MarketKey{Source: SourceKalshi, MarketID: "A"},
			MarketKey{Source: SourceKalshi, MarketID: "A"},
			MarketKey{Source: SourceKalshi, MarketID: "B"},
		},
		{"identical keys", kalshi, kalshi, kalshi, kalshi},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotA, gotB := CanonicalPairKey(tc.a, tc.b)
			assert.Equal(t, tc.wantA, gotA)
			assert.Equal(t, tc.wantB, gotB)
		})
	}
}

func TestCanonicalPairKey_OrderInvariant(t *testing.T) {
	a := MarketKey{Source: SourcePredictIt, MarketID: "1234"}
	b := MarketKey{Source: SourcePolymarket, MarketID: "trump-2028"}

	a1, b1 := CanonicalPairKey(a, b)
	a2, b2 := CanonicalPairKey(b, a)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestMatchedPairKeys(t *testing.T) {
	p := MatchedPair{
		SourceA:   SourceKalshi,
		MarketIDA: "K1",
		SourceB:   SourcePolymarket,
		MarketIDB: "P1",
	}
	assert.Equal(t, MarketKey{Source: SourceKalshi, MarketID: "K1"}, p.KeyA())
	assert.Equal(t, MarketKey{Source: SourcePolymarket, MarketID: "P1"}, p.KeyB())
}
