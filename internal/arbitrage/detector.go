// Package arbitrage evaluates matched market pairs for cross-platform
// Dutch-book opportunities: buying the cheapest YES and the cheapest NO
// across two listings of the same event pays out $1 regardless of outcome.
package arbitrage

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/quantfold/pmarb/internal/domain"
)

// Config holds the detector thresholds.
type Config struct {
	// MinSimilarity is the default match-similarity floor for pairs.
	MinSimilarity float64
	// MinProfitThreshold drops opportunities below this dollar profit.
	MinProfitThreshold float64
	// MinROI drops opportunities below this ROI percentage.
	MinROI float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinSimilarity:      0.70,
		MinProfitThreshold: 0.01,
		MinROI:             0,
	}
}

// Detector analyzes matched pairs against registered market snapshots.
// Each pair is evaluated independently and statelessly; malformed records
// are skipped, never surfaced as errors.
type Detector struct {
	cfg     Config
	markets map[domain.MarketKey]domain.Market
	logger  *slog.Logger
}

// New creates a Detector. The logger may be nil for pure library use.
func New(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:     cfg,
		markets: make(map[domain.MarketKey]domain.Market),
		logger:  logger.With(slog.String("component", "arb_detector")),
	}
}

// RegisterMarkets indexes markets by (source, market_id) for pair analysis.
// Re-registering a known key replaces the prior snapshot.
func (d *Detector) RegisterMarkets(markets []domain.Market) {
	for _, m := range markets {
		d.markets[m.Key()] = m
	}
}

// DetectOpportunities evaluates every matched pair at or above minSimilarity
// (pass a negative value to use the configured default) and returns the
// filtered opportunities sorted by min profit descending, ROI breaking ties.
func (d *Detector) DetectOpportunities(pairs []domain.MatchedPair, minSimilarity float64) []domain.ArbitrageOpportunity {
	minSim := minSimilarity
	if minSim < 0 {
		minSim = d.cfg.MinSimilarity
	}

	var opps []domain.ArbitrageOpportunity
	for _, pair := range pairs {
		if pair.Similarity < minSim {
			continue
		}
		opp, ok := d.analyzePair(pair)
		if !ok {
			continue
		}
		if opp.MinProfit < d.cfg.MinProfitThreshold || opp.ROIPct < d.cfg.MinROI {
			continue
		}
		opps = append(opps, opp)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].MinProfit != opps[j].MinProfit {
			return opps[i].MinProfit > opps[j].MinProfit
		}
		return opps[i].ROIPct > opps[j].ROIPct
	})
	return opps
}

// FindBest returns the top n opportunities after filtering and ranking.
func (d *Detector) FindBest(pairs []domain.MatchedPair, n int) []domain.ArbitrageOpportunity {
	opps := d.DetectOpportunities(pairs, -1)
	if n < len(opps) {
		opps = opps[:n]
	}
	return opps
}

// analyzePair prices the symmetric YES+NO hedge for one matched pair.
// Any missing data (unregistered market, non-binary structure, absent side,
// invalid price) skips the pair.
func (d *Detector) analyzePair(pair domain.MatchedPair) (domain.ArbitrageOpportunity, bool) {
	marketA, okA := d.markets[pair.KeyA()]
	marketB, okB := d.markets[pair.KeyB()]
	if !okA || !okB {
		return domain.ArbitrageOpportunity{}, false
	}

	yesA, noA, okA := binaryContracts(marketA)
	yesB, noB, okB := binaryContracts(marketB)
	if !okA || !okB {
		return domain.ArbitrageOpportunity{}, false
	}

	yesAskA, ok1 := validAsk(yesA)
	noAskA, ok2 := validAsk(noA)
	yesAskB, ok3 := validAsk(yesB)
	noAskB, ok4 := validAsk(noB)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.ArbitrageOpportunity{}, false
	}

	yesPrice, yesVenue := yesAskA, "A"
	if yesAskB < yesAskA {
		yesPrice, yesVenue = yesAskB, "B"
	}
	noPrice, noVenue := noAskA, "A"
	if noAskB < noAskA {
		noPrice, noVenue = noAskB, "B"
	}

	totalInvestment := yesPrice + noPrice
	if totalInvestment == 0 {
		return domain.ArbitrageOpportunity{}, false
	}

	// Holding one YES and one NO returns exactly $1 whichever side settles,
	// so the profit is outcome-independent by construction.
	const guaranteedReturn = 1.0
	minProfit := guaranteedReturn - totalInvestment
	roiPct := 100 * minProfit / totalInvestment

	isArb := minProfit > 0
	arbType := domain.ArbTypeHedge
	if isArb {
		arbType = domain.ArbTypeBothSides
	}

	return domain.ArbitrageOpportunity{
		ID:              uuid.NewString(),
		SourceA:         pair.SourceA,
		MarketIDA:       pair.MarketIDA,
		SourceB:         pair.SourceB,
		MarketIDB:       pair.MarketIDB,
		YesContractA:    yesA,
		NoContractA:     noA,
		YesContractB:    yesB,
		NoContractB:     noB,
		TotalInvestment: totalInvestment,
		MinProfit:       minProfit,
		MaxProfit:       minProfit,
		ProfitIfYes:     minProfit,
		ProfitIfNo:      minProfit,
		ROIPct:          roiPct,
		BreakEvenSpread: totalInvestment - guaranteedReturn,
		MatchSimilarity: pair.Similarity,
		IsArbitrage:     isArb,
		IsScalp:         false,
		Type:            arbType,
		Notes: fmt.Sprintf("Buy YES at %s ($%.4f), NO at %s ($%.4f)",
			yesVenue, yesPrice, noVenue, noPrice),
		MatchedPairID: pair.ID,
	}, true
}

// binaryContracts finds the YES and NO binary contracts of a market by
// case-insensitive side label.
func binaryContracts(m domain.Market) (yes, no domain.Contract, ok bool) {
	var haveYes, haveNo bool
	for _, c := range m.Contracts {
		if c.Outcome != domain.OutcomeBinary {
			continue
		}
		switch strings.ToUpper(c.Side) {
		case "YES":
			yes, haveYes = c, true
		case "NO":
			no, haveNo = c, true
		}
	}
	return yes, no, haveYes && haveNo
}

// validAsk returns the contract's ask price when present and inside [0, 1].
func validAsk(c domain.Contract) (float64, bool) {
	if c.AskPrice == nil {
		return 0, false
	}
	p := *c.AskPrice
	if p < 0 || p > 1 {
		return 0, false
	}
	return p, true
}
