package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quantfold/pmarb/internal/arbitrage"
	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/notify"
)

// ArbService runs arbitrage detection over the stored matched pairs and
// reports what it finds.
type ArbService struct {
	pairs    domain.MatchedPairStore
	markets  domain.MarketStore
	cache    domain.MarketCache // optional
	detector *arbitrage.Detector
	notifier *notify.Notifier // optional
	logger   *slog.Logger
}

// NewArbService creates an ArbService. cache and notifier may be nil.
func NewArbService(
	pairs domain.MatchedPairStore,
	markets domain.MarketStore,
	cache domain.MarketCache,
	detector *arbitrage.Detector,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *ArbService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArbService{
		pairs:    pairs,
		markets:  markets,
		cache:    cache,
		detector: detector,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "arb_service")),
	}
}

// DetectOpportunities loads the matched pairs at or above minSimilarity,
// registers current market snapshots with the detector, and returns the
// surviving opportunities sorted by guaranteed profit. A negative
// minSimilarity falls back to the detector's configured threshold. When a
// notifier is configured and opportunities exist, a summary alert is sent.
func (s *ArbService) DetectOpportunities(ctx context.Context, minSimilarity float64) ([]domain.ArbitrageOpportunity, error) {
	pairs, err := s.pairs.List(ctx, domain.MatchedPairFilter{})
	if err != nil {
		return nil, fmt.Errorf("service: list matched pairs: %w", err)
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	markets, err := s.loadMarkets(ctx, pairs)
	if err != nil {
		return nil, err
	}
	s.detector.RegisterMarkets(markets)

	opps := s.detector.DetectOpportunities(pairs, minSimilarity)
	s.logger.InfoContext(ctx, "detection run complete",
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", len(opps)),
	)

	if len(opps) > 0 && s.notifier != nil {
		title := fmt.Sprintf("%d arbitrage opportunities", len(opps))
		if err := s.notifier.Notify(ctx, notify.EventArbitrage, title, arbitrage.Summarize(opps)); err != nil {
			// Alert delivery must not fail the detection run.
			s.logger.WarnContext(ctx, "notification failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return opps, nil
}

// FindBest returns the top n opportunities from a fresh detection run.
func (s *ArbService) FindBest(ctx context.Context, n int) ([]domain.ArbitrageOpportunity, error) {
	opps, err := s.DetectOpportunities(ctx, -1)
	if err != nil {
		return nil, err
	}
	if n < len(opps) {
		opps = opps[:n]
	}
	return opps, nil
}

// loadMarkets resolves the market snapshots referenced by the pairs,
// preferring the cache and falling back to the store per miss.
func (s *ArbService) loadMarkets(ctx context.Context, pairs []domain.MatchedPair) ([]domain.Market, error) {
	seen := make(map[domain.MarketKey]bool, len(pairs)*2)
	keys := make([]domain.MarketKey, 0, len(pairs)*2)
	for _, p := range pairs {
		for _, k := range []domain.MarketKey{p.KeyA(), p.KeyB()} {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	markets := make([]domain.Market, 0, len(keys))
	for _, k := range keys {
		m, err := s.lookupMarket(ctx, k)
		if errors.Is(err, domain.ErrNotFound) {
			// The detector skips pairs whose markets are unregistered.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("service: load market %s/%s: %w", k.Source, k.MarketID, err)
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func (s *ArbService) lookupMarket(ctx context.Context, key domain.MarketKey) (domain.Market, error) {
	if s.cache != nil {
		m, err := s.cache.Get(ctx, key)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "market cache read failed",
				slog.String("market_id", key.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}
	return s.markets.Get(ctx, key)
}
