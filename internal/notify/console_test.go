package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantfold/pmarb/internal/domain"
)

func TestConsole_PrintOpportunities(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.PrintOpportunities([]domain.ArbitrageOpportunity{
		{
			SourceA:         domain.SourceKalshi,
			MarketIDA:       "PRES-28",
			SourceB:         domain.SourcePolymarket,
			MarketIDB:       "trump-2028",
			TotalInvestment: 0.70,
			MinProfit:       0.30,
			ROIPct:          42.86,
			MatchSimilarity: 0.95,
			Type:            domain.ArbTypeBothSides,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Found 1 arbitrage opportunities:")
	assert.Contains(t, out, "both_sides")
	assert.Contains(t, out, "kalshi/PRES-28")
	assert.Contains(t, out, "polymarket/trump-2028")
	assert.Contains(t, out, "$0.7000")
	assert.Contains(t, out, "$0.3000")
	assert.Contains(t, out, "42.86")
}

func TestConsole_PrintOpportunities_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).PrintOpportunities(nil)
	assert.Equal(t, "No arbitrage opportunities found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 24))
	assert.Equal(t, "abcdefghijklmnopqrstu...", truncate("abcdefghijklmnopqrstuvwxyz", 24))
}
