package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/pmarb/internal/domain"
)

func TestFetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("closed"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))

		json.NewEncoder(w).Encode([]APIMarket{
			{
				ID:            "101",
				Slug:          "trump-2028",
				Question:      "Will Trump win the 2028 election?",
				Category:      "Politics",
				Outcomes:      `["Yes","No"]`,
				OutcomePrices: `["0.42","0.58"]`,
				Volume:        "150000.5",
				EndDate:       "2028-11-07T00:00:00Z",
			},
			{
				ID:            "102",
				Slug:          "gop-nominee",
				Question:      "Republican nominee 2028?",
				Outcomes:      `["Vance","DeSantis","Haley"]`,
				OutcomePrices: `["0.5","0.3","0.2"]`,
			},
			{ID: "", Slug: ""}, // no identity, dropped
		})
	}))
	defer srv.Close()

	markets, err := NewClient(srv.URL).FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 2)

	binary := markets[0]
	assert.Equal(t, domain.SourcePolymarket, binary.Source)
	assert.Equal(t, "trump-2028", binary.MarketID)
	assert.Equal(t, "Will Trump win the 2028 election?", binary.Name)
	assert.Equal(t, "Politics", binary.Category)
	require.NotNil(t, binary.EventTime)

	require.Len(t, binary.Contracts, 2)
	yes := binary.Contracts[0]
	assert.Equal(t, "Yes", yes.Side)
	assert.Equal(t, domain.OutcomeBinary, yes.Outcome)
	require.NotNil(t, yes.AskPrice)
	assert.InDelta(t, 0.42, *yes.AskPrice, 1e-9)
	// Gamma exposes a single mid price per outcome.
	require.NotNil(t, yes.LastPrice)
	assert.Equal(t, *yes.AskPrice, *yes.LastPrice)
	require.NotNil(t, yes.Volume)
	assert.InDelta(t, 150000.5, *yes.Volume, 1e-9)

	multi := markets[1]
	assert.Equal(t, "gop-nominee", multi.MarketID)
	require.Len(t, multi.Contracts, 3)
	assert.Equal(t, domain.OutcomeMulti, multi.Contracts[0].Outcome)
	assert.Equal(t, "Vance", multi.Contracts[0].Side)
}

func TestGetMarketBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trump-2028", r.URL.Query().Get("slug"))
		json.NewEncoder(w).Encode([]APIMarket{
			{Slug: "trump-2028", Question: "Will Trump win?", Outcomes: `["Yes","No"]`, OutcomePrices: `["0.4","0.6"]`},
		})
	}))
	defer srv.Close()

	m, err := NewClient(srv.URL).GetMarketBySlug(context.Background(), "trump-2028")
	require.NoError(t, err)
	assert.Equal(t, "trump-2028", m.MarketID)
}

func TestGetMarketBySlug_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]APIMarket{})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetMarketBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchMarkets_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchMarkets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestToDomainMarket_EdgeCases(t *testing.T) {
	// Malformed outcome JSON means an unusable market.
	_, ok := toDomainMarket(APIMarket{Slug: "bad", Outcomes: "not json"})
	assert.False(t, ok)

	// ID stands in when the slug is empty; end_date_iso is the fallback
	// timestamp field.
	m, ok := toDomainMarket(APIMarket{
		ID:            "555",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.5"]`,
		EndDateISO:    "2027-01-01T00:00:00Z",
	})
	require.True(t, ok)
	assert.Equal(t, "555", m.MarketID)
	assert.Equal(t, "555", m.Name)
	require.NotNil(t, m.EventTime)

	// A missing price entry maps to a nil price, not zero.
	require.Len(t, m.Contracts, 2)
	require.NotNil(t, m.Contracts[0].AskPrice)
	assert.Nil(t, m.Contracts[1].AskPrice)
}

func TestSource(t *testing.T) {
	assert.Equal(t, domain.SourcePolymarket, NewClient("").Source())
}
