package domain

import (
	"fmt"
	"strings"
)

// ArbitrageType classifies the risk profile of an opportunity.
type ArbitrageType string

const (
	// ArbTypeBothSides is a Dutch book: buying the cheapest YES and the
	// cheapest NO across the two markets pays out regardless of outcome.
	ArbTypeBothSides ArbitrageType = "both_sides"
	// ArbTypeScalp is a conditional-profit position. The symmetric YES+NO
	// hedge never produces it; the value is reserved for an asymmetric
	// single-side strategy.
	ArbTypeScalp ArbitrageType = "scalp"
	// ArbTypeHedge covers pairs where the hedge caps loss but cannot
	// guarantee profit.
	ArbTypeHedge ArbitrageType = "hedge"
)

// ArbitrageOpportunity is the priced result of analyzing one matched pair.
type ArbitrageOpportunity struct {
	ID string

	SourceA   Source
	MarketIDA string
	SourceB   Source
	MarketIDB string

	YesContractA Contract
	NoContractA  Contract
	YesContractB Contract
	NoContractB  Contract

	TotalInvestment float64
	MinProfit       float64
	MaxProfit       float64
	ProfitIfYes     float64
	ProfitIfNo      float64
	ROIPct          float64
	BreakEvenSpread float64

	MatchSimilarity float64

	IsArbitrage bool
	IsScalp     bool
	Type        ArbitrageType

	Notes         string
	MatchedPairID int64
}

// Summary renders a fixed-order human-readable block for the opportunity.
func (o ArbitrageOpportunity) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s <-> %s/%s\n",
		strings.ToUpper(string(o.SourceA)), o.MarketIDA,
		strings.ToUpper(string(o.SourceB)), o.MarketIDB,
	)
	fmt.Fprintf(&b, "Type: %s | Match Quality: %.1f%%\n",
		strings.ToUpper(string(o.Type)), o.MatchSimilarity*100,
	)
	fmt.Fprintf(&b, "Min Profit: $%.2f | Max Profit: $%.2f\n", o.MinProfit, o.MaxProfit)
	fmt.Fprintf(&b, "ROI: %.2f%% | Investment: $%.2f\n", o.ROIPct, o.TotalInvestment)
	switch {
	case o.IsArbitrage:
		b.WriteString("ARBITRAGE (risk-free profit opportunity)")
	case o.IsScalp:
		b.WriteString("SCALP (conditional profit opportunity)")
	default:
		b.WriteString("HEDGE (risk mitigation, no profit guaranteed)")
	}
	if o.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", o.Notes)
	}
	return b.String()
}
