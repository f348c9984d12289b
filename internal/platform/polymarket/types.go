package polymarket

import "encoding/json"

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes and their AMM mid prices arrive JSON-encoded inside strings.
type APIMarket struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	Slug          string `json:"slug"`
	Category      string `json:"category"`
	Closed        bool   `json:"closed"`
	Outcomes      string `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Volume        string `json:"volume"`
	EndDate       string `json:"endDate"`
	EndDateISO    string `json:"end_date_iso"`
}

// outcomeList decodes the JSON-encoded outcomes string.
func (m *APIMarket) outcomeList() []string {
	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return nil
	}
	return outcomes
}

// priceList decodes the JSON-encoded outcome prices string.
func (m *APIMarket) priceList() []string {
	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil {
		return nil
	}
	return prices
}
