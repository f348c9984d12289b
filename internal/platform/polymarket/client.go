// Package polymarket is a read-only client for the Polymarket Gamma API,
// which provides market discovery, metadata, and AMM mid prices.
package polymarket

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

// DefaultBaseURL is the public Gamma API root.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

const pageLimit = 200

// Client is the REST client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Gamma API client. An empty baseURL selects
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

// Source identifies this provider as Polymarket.
func (c *Client) Source() domain.Source { return domain.SourcePolymarket }

// FetchMarkets returns all open Polymarket markets as domain snapshots,
// paging through the Gamma API until a short page is returned.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	for offset := 0; ; offset += pageLimit {
		page, err := c.getMarkets(ctx, pageLimit, offset)
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
		if len(page) < pageLimit {
			break
		}
	}
	return markets, nil
}

// GetMarketBySlug returns a single market looked up by its URL slug.
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (domain.Market, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket: get market by slug %s: %w", slug, err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket: decode markets: %w", err)
	}
	if len(apiMarkets) == 0 {
		return domain.Market{}, domain.ErrNotFound
	}

	m, ok := toDomainMarket(apiMarkets[0])
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (c *Client) getMarkets(ctx context.Context, limit, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket: decode markets: %w", err)
	}

	return apiMarkets, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("polymarket: HTTP %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// toDomainMarket converts a Gamma market into a domain snapshot. Outcome
// mid prices feed both the ask and last fields since Gamma does not expose
// a book. Markets with no identity or no outcomes are reported as not ok.
func toDomainMarket(m APIMarket) (domain.Market, bool) {
	marketID := m.Slug
	if marketID == "" {
		marketID = m.ID
	}
	if marketID == "" {
		return domain.Market{}, false
	}

	name := m.Question
	if name == "" {
		name = marketID
	}

	outcomes := m.outcomeList()
	prices := m.priceList()
	if len(outcomes) == 0 {
		return domain.Market{}, false
	}

	outcomeType := domain.OutcomeMulti
	if len(outcomes) == 2 {
		outcomeType = domain.OutcomeBinary
	}

	var volume *float64
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		volume = domain.Ptr(v)
	}

	contracts := make([]domain.Contract, 0, len(outcomes))
	for i, label := range outcomes {
		var price *float64
		if i < len(prices) {
			if p, err := strconv.ParseFloat(prices[i], 64); err == nil {
				price = domain.Ptr(p)
			}
		}
		contracts = append(contracts, domain.Contract{
			Source:     domain.SourcePolymarket,
			MarketID:   marketID,
			ContractID: marketID + "_" + label,
			Name:       label,
			Side:       label,
			Outcome:    outcomeType,
			AskPrice:   price,
			LastPrice:  price,
			Volume:     volume,
		})
	}

	eventTime := domain.EventTimeOf(m.EndDate)
	if eventTime == nil {
		eventTime = domain.EventTimeOf(m.EndDateISO)
	}

	return domain.Market{
		Source:    domain.SourcePolymarket,
		MarketID:  marketID,
		Name:      name,
		Category:  m.Category,
		EventTime: eventTime,
		Contracts: contracts,
	}, true
}
