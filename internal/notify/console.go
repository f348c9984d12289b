package notify

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/quantfold/pmarb/internal/domain"
)

// Console renders detection results as a terminal table.
type Console struct {
	out io.Writer
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// PrintOpportunities renders one row per opportunity, ordered as given.
func (c *Console) PrintOpportunities(opps []domain.ArbitrageOpportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(c.out, "No arbitrage opportunities found.")
		return
	}

	fmt.Fprintf(c.out, "\nFound %d arbitrage opportunities:\n\n", len(opps))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Type", "Market A", "Market B", "Invest", "Profit", "ROI%", "Sim")

	for i, opp := range opps {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(opp.Type),
			fmt.Sprintf("%s/%s", opp.SourceA, truncate(opp.MarketIDA, 24)),
			fmt.Sprintf("%s/%s", opp.SourceB, truncate(opp.MarketIDB, 24)),
			fmt.Sprintf("$%.4f", opp.TotalInvestment),
			fmt.Sprintf("$%.4f", opp.MinProfit),
			fmt.Sprintf("%.2f", opp.ROIPct),
			fmt.Sprintf("%.2f", opp.MatchSimilarity),
		)
	}

	table.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
