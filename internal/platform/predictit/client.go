// Package predictit is a read-only client for PredictIt's public market
// data API. Prices are already quoted in probability space (0.01 to 0.99)
// so no rescaling is needed.
package predictit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/quantfold/pmarb/internal/domain"
)

// DefaultBaseURL is the public all-markets endpoint.
const DefaultBaseURL = "https://www.predictit.org/api/marketdata/all/"

// Client is the REST client for PredictIt market data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new PredictIt client. An empty baseURL selects
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

// Source identifies this provider as PredictIt.
func (c *Client) Source() domain.Source { return domain.SourcePredictIt }

// FetchMarkets returns all PredictIt markets as domain snapshots. The API
// has no pagination; everything arrives in one payload.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("predictit: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictit: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("predictit: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictit: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Markets []APIMarket `json:"markets"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("predictit: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(payload.Markets))
	for i := range payload.Markets {
		m, ok := toDomainMarket(payload.Markets[i])
		if !ok {
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// APIMarket represents a market in the PredictIt all-markets payload.
type APIMarket struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	ShortName string        `json:"shortName"`
	TimeStamp string        `json:"timeStamp"`
	Contracts []APIContract `json:"contracts"`
}

// APIContract is a single contract entry inside a PredictIt market.
type APIContract struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	ShortName      string   `json:"shortName"`
	LastTradePrice *float64 `json:"lastTradePrice"`
	BestBuyYesCost *float64 `json:"bestBuyYesCost"`
	BestBuyNoCost  *float64 `json:"bestBuyNoCost"`
	Volume         *float64 `json:"volume"`
}

// toDomainMarket normalizes a PredictIt market. Markets with more than two
// contracts are multi-outcome; their contract sides keep the PredictIt
// outcome labels. Markets without an ID are reported as not ok.
func toDomainMarket(m APIMarket) (domain.Market, bool) {
	if m.ID == 0 {
		return domain.Market{}, false
	}
	marketID := strconv.FormatInt(m.ID, 10)

	name := m.Name
	if name == "" {
		name = marketID
	}

	outcomeType := domain.OutcomeBinary
	if len(m.Contracts) > 2 {
		outcomeType = domain.OutcomeMulti
	}

	contracts := make([]domain.Contract, 0, len(m.Contracts))

	// A binary market with a single quoted contract carries both the YES
	// cost and the NO cost, so it expands into an explicit YES/NO pair.
	if outcomeType == domain.OutcomeBinary && len(m.Contracts) == 1 {
		c := m.Contracts[0]
		cid := strconv.FormatInt(c.ID, 10)
		contracts = append(contracts,
			domain.Contract{
				Source:     domain.SourcePredictIt,
				MarketID:   marketID,
				ContractID: cid + "_YES",
				Name:       "YES",
				Side:       "YES",
				Outcome:    domain.OutcomeBinary,
				AskPrice:   c.BestBuyYesCost,
				LastPrice:  c.LastTradePrice,
				Volume:     c.Volume,
			},
			domain.Contract{
				Source:     domain.SourcePredictIt,
				MarketID:   marketID,
				ContractID: cid + "_NO",
				Name:       "NO",
				Side:       "NO",
				Outcome:    domain.OutcomeBinary,
				AskPrice:   c.BestBuyNoCost,
				Volume:     c.Volume,
			},
		)
	} else {
		for _, c := range m.Contracts {
			cid := strconv.FormatInt(c.ID, 10)
			label := c.Name
			if label == "" {
				label = cid
			}
			contracts = append(contracts, domain.Contract{
				Source:     domain.SourcePredictIt,
				MarketID:   marketID,
				ContractID: cid,
				Name:       label,
				Side:       label,
				Outcome:    outcomeType,
				BidPrice:   c.BestBuyYesCost,
				AskPrice:   c.BestBuyYesCost,
				LastPrice:  c.LastTradePrice,
				Volume:     c.Volume,
			})
		}
	}

	return domain.Market{
		Source:    domain.SourcePredictIt,
		MarketID:  marketID,
		Name:      name,
		Category:  m.ShortName,
		EventTime: domain.EventTimeOf(m.TimeStamp),
		Contracts: contracts,
	}, true
}
