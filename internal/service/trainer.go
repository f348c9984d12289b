package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfold/pmarb/internal/classifier"
	"github.com/quantfold/pmarb/internal/domain"
)

// Trainer fits the match classifier from human-confirmed pairs and keeps
// model snapshots in the configured model store.
type Trainer struct {
	pairs   domain.MatchedPairStore
	markets domain.MarketStore
	models  domain.ModelStore
	clf     *classifier.Classifier
	logger  *slog.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(
	pairs domain.MatchedPairStore,
	markets domain.MarketStore,
	models domain.ModelStore,
	clf *classifier.Classifier,
	logger *slog.Logger,
) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		pairs:   pairs,
		markets: markets,
		models:  models,
		clf:     clf,
		logger:  logger.With(slog.String("component", "trainer")),
	}
}

// TrainFromConfirmed fits the classifier using confirmed matched pairs as
// positive samples. Negative samples are derived by crossing each
// confirmed pair's first market with the next pair's second market, which
// yields same-shaped but mismatched combinations. The trained snapshot is
// saved to the model store under name.
func (t *Trainer) TrainFromConfirmed(ctx context.Context, name string) (classifier.Metrics, error) {
	confirmed, err := t.pairs.List(ctx, domain.MatchedPairFilter{ConfirmedOnly: true})
	if err != nil {
		return classifier.Metrics{}, fmt.Errorf("service: list confirmed pairs: %w", err)
	}

	positives := make([]classifier.Pair, 0, len(confirmed))
	for _, p := range confirmed {
		a, err := t.markets.Get(ctx, p.KeyA())
		if err != nil {
			continue
		}
		b, err := t.markets.Get(ctx, p.KeyB())
		if err != nil {
			continue
		}
		positives = append(positives, classifier.Pair{A: a, B: b})
	}

	negatives := deriveNegatives(positives)

	metrics, err := t.clf.Train(positives, negatives)
	if err != nil {
		return classifier.Metrics{}, fmt.Errorf("service: train classifier: %w", err)
	}

	t.logger.InfoContext(ctx, "classifier trained",
		slog.Int("positives", metrics.Positives),
		slog.Int("negatives", metrics.Negatives),
		slog.Float64("accuracy", metrics.Accuracy),
		slog.Float64("auc_roc", metrics.AUCROC),
	)

	var buf bytes.Buffer
	if err := t.clf.Save(&buf); err != nil {
		return metrics, fmt.Errorf("service: save classifier: %w", err)
	}
	if err := t.models.Put(ctx, name, buf.Bytes()); err != nil {
		return metrics, fmt.Errorf("service: store model %s: %w", name, err)
	}

	return metrics, nil
}

// LoadModel restores a saved snapshot into the classifier.
func (t *Trainer) LoadModel(ctx context.Context, name string) error {
	data, err := t.models.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("service: fetch model %s: %w", name, err)
	}
	if err := t.clf.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("service: load model %s: %w", name, err)
	}
	return nil
}

// deriveNegatives builds mismatched pairs by rotating the second market of
// each positive pair. Rotations that land on the same market are skipped.
func deriveNegatives(positives []classifier.Pair) []classifier.Pair {
	if len(positives) < 2 {
		return nil
	}
	negatives := make([]classifier.Pair, 0, len(positives))
	for i, p := range positives {
		next := positives[(i+1)%len(positives)]
		if p.A.Key() == next.B.Key() {
			continue
		}
		negatives = append(negatives, classifier.Pair{A: p.A, B: next.B})
	}
	return negatives
}
