package arbitrage

import (
	"fmt"
	"strings"

	"github.com/quantfold/pmarb/internal/domain"
)

// Summarize renders a deterministic plain-text report: a headline with
// per-category counts, then the top entries of each category in rank order.
func Summarize(opps []domain.ArbitrageOpportunity) string {
	if len(opps) == 0 {
		return "No arbitrage opportunities found."
	}

	var arbs, scalps, hedges []domain.ArbitrageOpportunity
	for _, o := range opps {
		switch {
		case o.IsArbitrage:
			arbs = append(arbs, o)
		case o.IsScalp:
			scalps = append(scalps, o)
		default:
			hedges = append(hedges, o)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d arbitrage opportunities:\n", len(opps))

	if len(arbs) > 0 {
		fmt.Fprintf(&b, "\n%d ARBITRAGE (risk-free profit):\n", len(arbs))
		for _, o := range top(arbs, 3) {
			fmt.Fprintf(&b, "  - Min profit: $%.2f (%.1f%% ROI)\n", o.MinProfit, o.ROIPct)
		}
	}
	if len(scalps) > 0 {
		fmt.Fprintf(&b, "\n%d SCALP (conditional profit):\n", len(scalps))
		for _, o := range top(scalps, 3) {
			fmt.Fprintf(&b, "  - Min profit: $%.2f (%.1f%% ROI)\n", o.MinProfit, o.ROIPct)
		}
	}
	if len(hedges) > 0 {
		fmt.Fprintf(&b, "\n%d HEDGE (risk mitigation):\n", len(hedges))
		for _, o := range top(hedges, 3) {
			fmt.Fprintf(&b, "  - Expected: $%.2f\n", o.MinProfit)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func top(opps []domain.ArbitrageOpportunity, n int) []domain.ArbitrageOpportunity {
	if n < len(opps) {
		return opps[:n]
	}
	return opps
}
