// Package service orchestrates ingestion, matching, and arbitrage
// detection across the storage and platform layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/pmarb/internal/classifier"
	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/matcher"
	"github.com/quantfold/pmarb/internal/platform"
)

// MatchService fetches market snapshots from the configured platforms and
// maintains the matched-pair table.
type MatchService struct {
	providers []platform.Provider
	markets   domain.MarketStore
	pairs     domain.MatchedPairStore
	cache     domain.MarketCache // optional
	matcher   *matcher.Matcher
	clf       *classifier.Classifier // optional
	logger    *slog.Logger
}

// NewMatchService creates a MatchService. cache and clf may be nil; the
// service then skips cache writes and classifier scoring respectively.
func NewMatchService(
	providers []platform.Provider,
	markets domain.MarketStore,
	pairs domain.MatchedPairStore,
	cache domain.MarketCache,
	m *matcher.Matcher,
	clf *classifier.Classifier,
	logger *slog.Logger,
) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{
		providers: providers,
		markets:   markets,
		pairs:     pairs,
		cache:     cache,
		matcher:   m,
		clf:       clf,
		logger:    logger.With(slog.String("component", "match_service")),
	}
}

// IngestMarkets fetches current snapshots from every provider concurrently
// and upserts them into the market store (and cache, when configured). A
// provider failure aborts the whole ingest.
func (s *MatchService) IngestMarkets(ctx context.Context) (int, error) {
	var (
		mu    sync.Mutex
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range s.providers {
		g.Go(func() error {
			markets, err := p.FetchMarkets(gctx)
			if err != nil {
				return fmt.Errorf("service: fetch %s markets: %w", p.Source(), err)
			}

			if err := s.markets.UpsertBatch(gctx, markets); err != nil {
				return fmt.Errorf("service: store %s markets: %w", p.Source(), err)
			}

			if s.cache != nil {
				if err := s.cache.SetAll(gctx, markets); err != nil {
					// Cache writes are best effort.
					s.logger.WarnContext(gctx, "market cache write failed",
						slog.String("source", string(p.Source())),
						slog.String("error", err.Error()),
					)
				}
			}

			s.logger.InfoContext(gctx, "markets ingested",
				slog.String("source", string(p.Source())),
				slog.Int("count", len(markets)),
			)

			mu.Lock()
			total += len(markets)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// RunMatching scores every cross-platform market combination and upserts
// pairs that clear the matcher threshold. When a trained classifier is
// available, each persisted pair also carries its predicted probability.
// It returns the number of pairs written.
func (s *MatchService) RunMatching(ctx context.Context) (int, error) {
	bySource, err := s.marketsBySource(ctx)
	if err != nil {
		return 0, err
	}

	sources := make([]domain.Source, 0, len(bySource))
	for src := range bySource {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	written := 0
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			results := s.matcher.FindMatches(bySource[sources[i]], bySource[sources[j]], true)
			s.logger.InfoContext(ctx, "matching pass complete",
				slog.String("source_a", string(sources[i])),
				slog.String("source_b", string(sources[j])),
				slog.Int("candidates", len(results)),
			)

			for _, res := range results {
				pair := toMatchedPair(res)

				if s.clf != nil {
					prob, err := s.clf.Predict(res.MarketA, res.MarketB)
					switch {
					case err == nil:
						pair.ClassifierProbability = &prob
					case errors.Is(err, domain.ErrUntrainedModel):
						// Heuristic-only run.
					default:
						return written, fmt.Errorf("service: classify pair: %w", err)
					}
				}

				if _, err := s.pairs.Upsert(ctx, pair); err != nil {
					return written, fmt.Errorf("service: upsert matched pair: %w", err)
				}
				written++
			}
		}
	}

	return written, nil
}

// ConfirmPair marks a stored pair as human-verified.
func (s *MatchService) ConfirmPair(ctx context.Context, a, b domain.MarketKey, by, notes string) error {
	if _, err := s.pairs.Confirm(ctx, a, b, by, notes); err != nil {
		return fmt.Errorf("service: confirm pair: %w", err)
	}
	return nil
}

// ListPairs returns stored pairs matching the filter.
func (s *MatchService) ListPairs(ctx context.Context, filter domain.MatchedPairFilter) ([]domain.MatchedPair, error) {
	pairs, err := s.pairs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: list pairs: %w", err)
	}
	return pairs, nil
}

func (s *MatchService) marketsBySource(ctx context.Context) (map[domain.Source][]domain.Market, error) {
	all, err := s.markets.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list markets: %w", err)
	}

	bySource := make(map[domain.Source][]domain.Market)
	for _, m := range all {
		bySource[m.Source] = append(bySource[m.Source], m)
	}
	return bySource, nil
}

// toMatchedPair converts an ephemeral match result to its persisted form.
// The store canonicalizes the key order on write.
func toMatchedPair(res domain.MatchResult) domain.MatchedPair {
	return domain.MatchedPair{
		SourceA:            res.MarketA.Source,
		MarketIDA:          res.MarketA.MarketID,
		SourceB:            res.MarketB.Source,
		MarketIDB:          res.MarketB.MarketID,
		Similarity:         res.Score,
		NameSimilarity:     res.NameSimilarity,
		CategorySimilarity: res.CategorySimilarity,
		ContractSimilarity: res.ContractSimilarity,
		TemporalProximity:  res.TemporalProximity,
	}
}
