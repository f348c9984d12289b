package kalshi

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

func TestFetchMarkets_Pagination(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		require.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"markets": []APIMarket{
					{Ticker: "PRES-28", Title: "Presidential winner", Category: "Politics", YesBid: 39, YesAsk: 40, NoBid: 59, NoAsk: 61, LastPrice: 40, Volume: 1200, ExpirationTime: "2028-11-07T00:00:00Z"},
					{Ticker: ""}, // no ticker, dropped
				},
				"cursor": "page2",
			})
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("cursor"))
		json.NewEncoder(w).Encode(map[string]any{
			"markets": []APIMarket{
				{Ticker: "FED-MAR", Title: "Fed cuts in March", YesAsk: 25, NoAsk: 77},
			},
			"cursor": "",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	markets, err := c.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Len(t, markets, 2)

	m := markets[0]
	assert.Equal(t, domain.SourceKalshi, m.Source)
	assert.Equal(t, "PRES-28", m.MarketID)
	assert.Equal(t, "Presidential winner", m.Name)
	assert.Equal(t, "Politics", m.Category)
	require.NotNil(t, m.EventTime)

	require.Len(t, m.Contracts, 2)
	yes, no := m.Contracts[0], m.Contracts[1]
	assert.Equal(t, "YES", yes.Side)
	require.NotNil(t, yes.AskPrice)
	assert.InDelta(t, 0.40, *yes.AskPrice, 1e-9)
	require.NotNil(t, yes.BidPrice)
	assert.InDelta(t, 0.39, *yes.BidPrice, 1e-9)
	assert.Equal(t, "NO", no.Side)
	require.NotNil(t, no.AskPrice)
	assert.InDelta(t, 0.61, *no.AskPrice, 1e-9)

	assert.Equal(t, "FED-MAR", markets[1].MarketID)
}

func TestGetMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets/PRES-28", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"market": APIMarket{Ticker: "PRES-28", Title: "Presidential winner", YesAsk: 40, NoAsk: 61},
		})
	}))
	defer srv.Close()

	m, err := NewClient(srv.URL).GetMarket(context.Background(), "PRES-28")
	require.NoError(t, err)
	assert.Equal(t, "PRES-28", m.MarketID)
}

func TestGetMarket_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(APIErrorResponse{Code: "not_found", Message: "no such market"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetMarket(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "no such market")
}

func TestFetchMarkets_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchMarkets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestToDomainMarket_Fallbacks(t *testing.T) {
	m, ok := toDomainMarket(APIMarket{Ticker: "TICK", EventTicker: "EVT"})
	require.True(t, ok)
	// Missing title and category fall back to tickers.
	assert.Equal(t, "TICK", m.Name)
	assert.Equal(t, "EVT", m.Category)
	assert.Nil(t, m.EventTime)

	// Zero cent quotes mean no price.
	assert.Nil(t, m.Contracts[0].AskPrice)
	assert.Nil(t, m.Contracts[1].AskPrice)
}

func TestCentsPtr(t *testing.T) {
	assert.Nil(t, centsPtr(0))
	assert.Nil(t, centsPtr(-5))
	assert.Nil(t, centsPtr(101))

	p := centsPtr(55)
	require.NotNil(t, p)
	assert.InDelta(t, 0.55, *p, 1e-9)
}

func TestSource(t *testing.T) {
	assert.Equal(t, domain.SourceKalshi, NewClient("").Source())
}
