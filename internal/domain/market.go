package domain

import "time"

// Source identifies the trading platform a market was listed on.
type Source string

const (
	SourceKalshi     Source = "kalshi"
	SourcePolymarket Source = "polymarket"
	SourcePredictIt  Source = "predictit"
)

// OutcomeType describes the contract payout structure.
type OutcomeType string

const (
	OutcomeBinary OutcomeType = "binary"
	OutcomeMulti  OutcomeType = "multi"
)

// Contract is a single tradable outcome within a market. Prices are
// probability-scaled to [0, 1]; nil means the platform did not report one.
type Contract struct {
	Source     Source
	MarketID   string
	ContractID string
	Name       string
	Side       string // "YES", "NO", or an outcome label for multi markets
	Outcome    OutcomeType
	BidPrice   *float64
	AskPrice   *float64
	LastPrice  *float64
	Volume     *float64
}

// Market is an immutable snapshot of a single platform's listing.
// The matching and detection layers only ever read it.
type Market struct {
	Source    Source
	MarketID  string
	Name      string
	Category  string
	EventTime *time.Time
	Contracts []Contract
}

// MarketKey uniquely identifies a market across platforms.
type MarketKey struct {
	Source   Source
	MarketID string
}

// Key returns the market's cross-platform identity.
func (m Market) Key() MarketKey {
	return MarketKey{Source: m.Source, MarketID: m.MarketID}
}

// Price returns the contract's buy cost: the ask price when present,
// falling back to the last traded price. The second return is false when
// neither is available.
func (c Contract) Price() (float64, bool) {
	if c.AskPrice != nil {
		return *c.AskPrice, true
	}
	if c.LastPrice != nil {
		return *c.LastPrice, true
	}
	return 0, false
}

// Ptr returns a pointer to v. Convenience for optional price fields.
func Ptr(v float64) *float64 { return &v }

// EventTimeOf parses t as RFC 3339 and returns a pointer to the result,
// or nil when t is empty or unparseable. Platform adapters use it to map
// loosely formatted API timestamps onto Market.EventTime.
func EventTimeOf(t string) *time.Time {
	if t == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, t)
	if err != nil {
		return nil
	}
	return &parsed
}
