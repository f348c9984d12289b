// Package kalshi is a read-only REST client for Kalshi market data.
// Only public GET endpoints are used; no authentication is required.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantfold/pmarb/internal/domain"
)

// DefaultBaseURL is the public Kalshi trade API root.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

const pageLimit = 200

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Kalshi REST client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Source identifies this provider as Kalshi.
func (c *Client) Source() domain.Source { return domain.SourceKalshi }

// FetchMarkets returns all open Kalshi markets as domain snapshots,
// following the pagination cursor until exhausted.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	cursor := ""
	for {
		page, next, err := c.getMarkets(ctx, "open", pageLimit, cursor)
		if err != nil {
			return nil, err
		}
		for i := range page {
			m, ok := toDomainMarket(page[i])
			if !ok {
				continue
			}
			markets = append(markets, m)
		}
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}
	return markets, nil
}

// GetMarket returns a single market by its ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (domain.Market, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(ticker))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.Market{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market APIMarket `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("kalshi: decode market: %w", err)
	}

	m, ok := toDomainMarket(resp.Market)
	if !ok {
		return domain.Market{}, fmt.Errorf("kalshi: market %s: %w", ticker, domain.ErrNotFound)
	}
	return m, nil
}

func (c *Client) getMarkets(ctx context.Context, status string, limit int, cursor string) ([]APIMarket, string, error) {
	params := url.Values{}
	params.Set("status", status)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets []APIMarket `json:"markets"`
		Cursor  string      `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}

	return resp.Markets, resp.Cursor, nil
}

// doGet sends an unauthenticated GET request to the Kalshi API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr APIErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("kalshi: not found: %s (%s)", apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("kalshi: rate limited: %s (%s)", apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("kalshi: HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}

// toDomainMarket converts a Kalshi market into a domain snapshot with one
// YES and one NO contract. Cent prices are rescaled to [0, 1]; a zero
// quote means the platform reported no price and maps to nil. Markets
// without a ticker are unusable and reported as not ok.
func toDomainMarket(m APIMarket) (domain.Market, bool) {
	if m.Ticker == "" {
		return domain.Market{}, false
	}

	name := m.Title
	if name == "" {
		name = m.Ticker
	}
	category := m.Category
	if category == "" {
		category = m.EventTicker
	}

	volume := float64(m.Volume)

	yes := domain.Contract{
		Source:     domain.SourceKalshi,
		MarketID:   m.Ticker,
		ContractID: m.Ticker + "_YES",
		Name:       "YES",
		Side:       "YES",
		Outcome:    domain.OutcomeBinary,
		BidPrice:   centsPtr(m.YesBid),
		AskPrice:   centsPtr(m.YesAsk),
		LastPrice:  centsPtr(m.LastPrice),
		Volume:     &volume,
	}
	no := domain.Contract{
		Source:     domain.SourceKalshi,
		MarketID:   m.Ticker,
		ContractID: m.Ticker + "_NO",
		Name:       "NO",
		Side:       "NO",
		Outcome:    domain.OutcomeBinary,
		BidPrice:   centsPtr(m.NoBid),
		AskPrice:   centsPtr(m.NoAsk),
		Volume:     &volume,
	}

	return domain.Market{
		Source:    domain.SourceKalshi,
		MarketID:  m.Ticker,
		Name:      name,
		Category:  category,
		EventTime: domain.EventTimeOf(m.ExpirationTime),
		Contracts: []domain.Contract{yes, no},
	}, true
}

// centsPtr rescales a cent quote to probability space. Kalshi reports 0
// when there is no quote at that level.
func centsPtr(cents float64) *float64 {
	if cents <= 0 || cents > 100 {
		return nil
	}
	return domain.Ptr(cents / 100.0)
}
