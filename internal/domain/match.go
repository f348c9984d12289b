package domain

import "time"

// Confidence buckets a match result by how trustworthy it is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ContractPair links a contract in market A to its counterpart in market B.
type ContractPair struct {
	A Contract
	B Contract
}

// MatchResult is a scored candidate pairing of two markets. It is ephemeral:
// produced by the matcher, optionally persisted as a MatchedPair.
type MatchResult struct {
	MarketA Market
	MarketB Market

	// Score is the weighted sum of the four component scores, in [0, 1].
	Score float64

	NameSimilarity     float64
	CategorySimilarity float64
	ContractSimilarity float64
	TemporalProximity  float64

	MatchingContracts []ContractPair
	Confidence        Confidence
}

// MatchedPair is the persisted record of a cross-platform market match.
// Records are stored in canonical order (SourceA < SourceB, market ID as
// tiebreak) so each unordered pair maps to exactly one row.
type MatchedPair struct {
	ID int64

	SourceA   Source
	MarketIDA string
	SourceB   Source
	MarketIDB string

	Similarity         float64
	NameSimilarity     float64
	CategorySimilarity float64
	ContractSimilarity float64
	TemporalProximity  float64

	// ClassifierProbability is set when the learned classifier scored the
	// pair; nil means only the heuristic matcher ran.
	ClassifierProbability *float64

	Confirmed   bool
	ConfirmedBy string
	ConfirmedAt *time.Time
	Notes       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// KeyA returns the canonical first market key of the pair.
func (p MatchedPair) KeyA() MarketKey { return MarketKey{Source: p.SourceA, MarketID: p.MarketIDA} }

// KeyB returns the canonical second market key of the pair.
func (p MatchedPair) KeyB() MarketKey { return MarketKey{Source: p.SourceB, MarketID: p.MarketIDB} }

// CanonicalPairKey orders two market identities so that every unordered pair
// has a single canonical representation: the lexicographically smaller source
// first, with market ID breaking ties when the sources are equal. All
// matched-pair write paths must go through this function.
func CanonicalPairKey(a, b MarketKey) (MarketKey, MarketKey) {
	if a.Source < b.Source {
		return a, b
	}
	if a.Source > b.Source {
		return b, a
	}
	if a.MarketID <= b.MarketID {
		return a, b
	}
	return b, a
}
