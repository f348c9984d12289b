// Package matcher pairs semantically equivalent markets across platforms by
// combining name, category, contract-structure, and temporal similarity into
// a single weighted score.
package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/quantfold/pmarb/internal/domain"
)

// Config holds the matcher weights and thresholds.
type Config struct {
	NameWeight     float64
	CategoryWeight float64
	ContractWeight float64
	TemporalWeight float64

	// MinScoreThreshold drops candidate pairs scoring below it.
	MinScoreThreshold float64

	// MaxDaysApart bounds the temporal-proximity linear decay window.
	MaxDaysApart int
}

// DefaultConfig mirrors the tuned production weights.
func DefaultConfig() Config {
	return Config{
		NameWeight:        0.4,
		CategoryWeight:    0.2,
		ContractWeight:    0.3,
		TemporalWeight:    0.1,
		MinScoreThreshold: 0.5,
		MaxDaysApart:      7,
	}
}

// Validate checks that the weights form a convex combination.
func (c Config) Validate() error {
	total := c.NameWeight + c.CategoryWeight + c.ContractWeight + c.TemporalWeight
	if math.Abs(total-1.0) > 0.01 {
		return fmt.Errorf("matcher: weights must sum to 1.0, got %.3f", total)
	}
	if c.MaxDaysApart <= 0 {
		return fmt.Errorf("matcher: max_days_apart must be positive, got %d", c.MaxDaysApart)
	}
	return nil
}

// Matcher scores market pairs. It is stateless between calls and never
// mutates its inputs.
type Matcher struct {
	cfg Config
}

// New creates a Matcher; invalid configs are rejected.
func New(cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg}, nil
}

// FindMatches scores every candidate pair between the two lists and returns
// results at or above the score threshold, sorted descending by score.
// When crossSourceOnly is set, pairs listed on the same platform are skipped.
// Passing the same slice twice compares distinct pairs within one list.
func (m *Matcher) FindMatches(marketsA, marketsB []domain.Market, crossSourceOnly bool) []domain.MatchResult {
	withinSameList := sameMarketList(marketsA, marketsB)

	corpus := make([]string, 0, len(marketsA)+len(marketsB))
	for _, mk := range marketsA {
		corpus = append(corpus, mk.Name)
	}
	if !withinSameList {
		for _, mk := range marketsB {
			corpus = append(corpus, mk.Name)
		}
	}
	if len(corpus) == 0 {
		return nil
	}

	vec := newNgramVectorizer()
	vec.Fit(corpus)

	vecsA := make([][]float64, len(marketsA))
	for i, mk := range marketsA {
		vecsA[i] = vec.Transform(mk.Name)
	}
	vecsB := vecsA
	if !withinSameList {
		vecsB = make([][]float64, len(marketsB))
		for j, mk := range marketsB {
			vecsB[j] = vec.Transform(mk.Name)
		}
	}

	var results []domain.MatchResult
	for i, a := range marketsA {
		for j, b := range marketsB {
			if withinSameList && i >= j {
				continue
			}
			if crossSourceOnly && a.Source == b.Source {
				continue
			}
			nameSim := cosine(vecsA[i], vecsB[j])
			if r, ok := m.score(a, b, nameSim); ok {
				results = append(results, r)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// MatchSinglePair scores one pair without corpus vectorization, using the
// fuzzy sequence ratio for name similarity. It always returns a result; a
// below-threshold pair comes back with zero scores and low confidence.
func (m *Matcher) MatchSinglePair(a, b domain.Market) domain.MatchResult {
	nameSim := FuzzyRatio(a.Name, b.Name)
	if r, ok := m.score(a, b, nameSim); ok {
		return r
	}
	return domain.MatchResult{
		MarketA:    a,
		MarketB:    b,
		Confidence: domain.ConfidenceLow,
	}
}

func (m *Matcher) score(a, b domain.Market, nameSim float64) (domain.MatchResult, bool) {
	categorySim := categorySimilarity(a.Category, b.Category)
	contractSim := contractSimilarity(a, b)
	temporalSim := m.temporalProximity(a, b)

	overall := m.cfg.NameWeight*nameSim +
		m.cfg.CategoryWeight*categorySim +
		m.cfg.ContractWeight*contractSim +
		m.cfg.TemporalWeight*temporalSim

	if overall < m.cfg.MinScoreThreshold {
		return domain.MatchResult{}, false
	}

	pairs := matchContracts(a, b)

	return domain.MatchResult{
		MarketA:            a,
		MarketB:            b,
		Score:              overall,
		NameSimilarity:     nameSim,
		CategorySimilarity: categorySim,
		ContractSimilarity: contractSim,
		TemporalProximity:  temporalSim,
		MatchingContracts:  pairs,
		Confidence:         confidence(overall, nameSim, len(pairs)),
	}, true
}

// categorySimilarity treats missing metadata as neutral rather than a
// mismatch: many platforms simply do not categorize.
func categorySimilarity(catA, catB string) float64 {
	a := strings.ToLower(strings.TrimSpace(catA))
	b := strings.ToLower(strings.TrimSpace(catB))
	switch {
	case a == "" || b == "":
		return 0.5
	case a == b:
		return 1.0
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 0.7
	default:
		return 0.0
	}
}

// contractSimilarity blends outcome-type overlap (Jaccard, weight 0.6) with
// contract-count closeness (weight 0.4).
func contractSimilarity(a, b domain.Market) float64 {
	if len(a.Contracts) == 0 || len(b.Contracts) == 0 {
		return 0
	}

	typesA := make(map[domain.OutcomeType]struct{})
	for _, c := range a.Contracts {
		typesA[c.Outcome] = struct{}{}
	}
	typesB := make(map[domain.OutcomeType]struct{})
	for _, c := range b.Contracts {
		typesB[c.Outcome] = struct{}{}
	}

	common, union := 0, len(typesA)
	for t := range typesB {
		if _, ok := typesA[t]; ok {
			common++
		} else {
			union++
		}
	}
	typeSim := 0.0
	if union > 0 {
		typeSim = float64(common) / float64(union)
	}

	countA, countB := float64(len(a.Contracts)), float64(len(b.Contracts))
	countSim := 1.0 - math.Abs(countA-countB)/math.Max(countA, countB)
	countSim = math.Max(0, countSim)

	return 0.6*typeSim + 0.4*countSim
}

func (m *Matcher) temporalProximity(a, b domain.Market) float64 {
	if a.EventTime == nil || b.EventTime == nil {
		return 0.5
	}
	dateA := a.EventTime.UTC().Truncate(24 * time.Hour)
	dateB := b.EventTime.UTC().Truncate(24 * time.Hour)
	days := math.Abs(dateA.Sub(dateB).Hours() / 24)
	if days == 0 {
		return 1.0
	}
	maxDays := float64(m.cfg.MaxDaysApart)
	if days <= maxDays {
		return 1.0 - days/maxDays
	}
	return 0.0
}

// matchContracts pairs contracts across the two markets. Binary markets pair
// YES with YES and NO with NO by side label; everything else falls back to a
// greedy best-name assignment where no contract is used twice.
func matchContracts(a, b domain.Market) []domain.ContractPair {
	if yesA, noA, okA := binarySides(a); okA {
		if yesB, noB, okB := binarySides(b); okB {
			return []domain.ContractPair{{A: yesA, B: yesB}, {A: noA, B: noB}}
		}
	}

	type candidate struct {
		ai, bi int
		sim    float64
	}
	var candidates []candidate
	for i, ca := range a.Contracts {
		for j, cb := range b.Contracts {
			if ca.Outcome != cb.Outcome {
				continue
			}
			sim := FuzzyRatio(ca.Name, cb.Name)
			if sim > 0.6 {
				candidates = append(candidates, candidate{ai: i, bi: j, sim: sim})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	usedA := make(map[int]struct{})
	usedB := make(map[int]struct{})
	var pairs []domain.ContractPair
	for _, c := range candidates {
		if _, ok := usedA[c.ai]; ok {
			continue
		}
		if _, ok := usedB[c.bi]; ok {
			continue
		}
		usedA[c.ai] = struct{}{}
		usedB[c.bi] = struct{}{}
		pairs = append(pairs, domain.ContractPair{A: a.Contracts[c.ai], B: b.Contracts[c.bi]})
	}
	return pairs
}

// binarySides extracts the YES and NO contracts of a binary market.
func binarySides(m domain.Market) (yes, no domain.Contract, ok bool) {
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

func confidence(overall, nameSim float64, matchedContracts int) domain.Confidence {
	if overall > 0.8 && nameSim > 0.7 && matchedContracts > 0 {
		return domain.ConfidenceHigh
	}
	if overall > 0.65 || (overall > 0.5 && matchedContracts > 0) {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceLow
}

// sameMarketList reports whether a and b are the same backing slice, which
// switches FindMatches into within-list mode (each unordered pair once).
func sameMarketList(a, b []domain.Market) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}
