// Package classifier provides a trainable logistic-regression model that
// refines heuristic market matches into a same-market probability. Each
// Classifier instance owns its fitted state; there is no shared model.
package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/matcher"
)

// missingTimeSentinelDays penalizes pairs where either market lacks an
// event time; the classifier learns that a year apart means "not the same".
const missingTimeSentinelDays = 365

// snapshotVersion guards Save/Load compatibility.
const snapshotVersion = 1

// featureNames indexes the 3-dimensional feature vector.
var featureNames = [3]string{"name_similarity", "time_diff_days", "category_match"}

// Pair is one labeled or scored market pair.
type Pair struct {
	A domain.Market
	B domain.Market
}

// Metrics summarizes a training run over the full training set. Training
// data for market matching is small and imbalanced, so the raw numbers are
// reported without asserting any performance floor.
type Metrics struct {
	Positives int
	Negatives int
	Total     int
	Accuracy  float64
	AUCROC    float64
}

// Classifier predicts the probability that two markets describe the same
// underlying event from [name similarity, event-time gap, category match].
type Classifier struct {
	scaler scaler
	model  logisticModel
	fitted bool
}

// New returns an untrained classifier.
func New() *Classifier {
	return &Classifier{}
}

// Features extracts the model's 3-vector for a market pair.
func Features(a, b domain.Market) [3]float64 {
	return [3]float64{
		matcher.FuzzyRatio(a.Name, b.Name),
		timeDiffDays(a, b),
		categoryMatch(a, b),
	}
}

func timeDiffDays(a, b domain.Market) float64 {
	if a.EventTime == nil || b.EventTime == nil {
		return missingTimeSentinelDays
	}
	dayA := a.EventTime.UTC().Truncate(24 * time.Hour)
	dayB := b.EventTime.UTC().Truncate(24 * time.Hour)
	return math.Abs(dayA.Sub(dayB).Hours() / 24)
}

func categoryMatch(a, b domain.Market) float64 {
	ca, cb := normalizedCategory(a.Category), normalizedCategory(b.Category)
	if ca == "" || cb == "" {
		return 0
	}
	if ca == cb {
		return 1
	}
	return 0
}

func normalizedCategory(c string) string {
	return matcher.CleanText(c)
}

// Train fits the scaler and model on labeled pairs: positives are pairs
// known to reference the same event, negatives known distinct pairs.
// It returns domain.ErrInsufficientTrainingData when fewer than two samples
// exist or only one class is present.
func (c *Classifier) Train(positives, negatives []Pair) (Metrics, error) {
	total := len(positives) + len(negatives)
	if total < 2 || len(positives) == 0 || len(negatives) == 0 {
		return Metrics{}, fmt.Errorf(
			"classifier: train with %d positive / %d negative pairs: %w",
			len(positives), len(negatives), domain.ErrInsufficientTrainingData,
		)
	}

	samples := make([][]float64, 0, total)
	labels := make([]float64, 0, total)
	for _, p := range positives {
		f := Features(p.A, p.B)
		samples = append(samples, f[:])
		labels = append(labels, 1)
	}
	for _, p := range negatives {
		f := Features(p.A, p.B)
		samples = append(samples, f[:])
		labels = append(labels, 0)
	}

	c.scaler.fit(samples)
	scaled := make([][]float64, len(samples))
	for i, row := range samples {
		scaled[i] = c.scaler.transform(row)
	}
	c.model.fit(scaled, labels)
	c.fitted = true

	probs := make([]float64, len(scaled))
	for i, row := range scaled {
		probs[i] = c.model.probability(row)
	}

	return Metrics{
		Positives: len(positives),
		Negatives: len(negatives),
		Total:     total,
		Accuracy:  accuracy(probs, labels),
		AUCROC:    aucROC(probs, labels),
	}, nil
}

// Predict returns the probability in [0, 1] that the two markets are the
// same underlying event. It fails with domain.ErrUntrainedModel before a
// successful Train or Load.
func (c *Classifier) Predict(a, b domain.Market) (float64, error) {
	if !c.fitted {
		return 0, fmt.Errorf("classifier: predict: %w", domain.ErrUntrainedModel)
	}
	f := Features(a, b)
	return c.model.probability(c.scaler.transform(f[:])), nil
}

// PredictBatch scores pairs in order.
func (c *Classifier) PredictBatch(pairs []Pair) ([]float64, error) {
	if !c.fitted {
		return nil, fmt.Errorf("classifier: predict batch: %w", domain.ErrUntrainedModel)
	}
	probs := make([]float64, len(pairs))
	for i, p := range pairs {
		f := Features(p.A, p.B)
		probs[i] = c.model.probability(c.scaler.transform(f[:]))
	}
	return probs, nil
}

// FeatureImportance returns each feature's share of the total absolute
// coefficient mass; the shares sum to 1.
func (c *Classifier) FeatureImportance() (map[string]float64, error) {
	if !c.fitted {
		return nil, fmt.Errorf("classifier: feature importance: %w", domain.ErrUntrainedModel)
	}
	var total float64
	for _, w := range c.model.Weights {
		total += math.Abs(w)
	}
	out := make(map[string]float64, len(featureNames))
	for i, name := range featureNames {
		if total == 0 {
			out[name] = 0
			continue
		}
		out[name] = math.Abs(c.model.Weights[i]) / total
	}
	return out, nil
}

// snapshot is the on-disk model format.
type snapshot struct {
	Version int           `json:"version"`
	Scaler  scaler        `json:"scaler"`
	Model   logisticModel `json:"model"`
}

// Save serializes the fitted scaler and coefficients. Round-tripping through
// Load yields bit-identical predictions.
func (c *Classifier) Save(w io.Writer) error {
	if !c.fitted {
		return fmt.Errorf("classifier: save: %w", domain.ErrUntrainedModel)
	}
	snap := snapshot{Version: snapshotVersion, Scaler: c.scaler, Model: c.model}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("classifier: encode snapshot: %w", err)
	}
	return nil
}

// Load replaces the classifier state with a previously saved snapshot.
func (c *Classifier) Load(r io.Reader) error {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("classifier: decode snapshot: %w: %v", domain.ErrModelCorrupt, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("classifier: snapshot version %d: %w", snap.Version, domain.ErrModelCorrupt)
	}
	if len(snap.Model.Weights) != len(featureNames) ||
		len(snap.Scaler.Mean) != len(featureNames) ||
		len(snap.Scaler.Std) != len(featureNames) {
		return fmt.Errorf("classifier: snapshot dimension mismatch: %w", domain.ErrModelCorrupt)
	}
	c.scaler = snap.Scaler
	c.model = snap.Model
	c.fitted = true
	return nil
}
