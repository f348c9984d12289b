package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/pmarb/internal/domain"
)

// MatchedPairStore implements domain.MatchedPairStore using PostgreSQL.
// Every write canonicalizes the pair ordering through
// domain.CanonicalPairKey, and the matched_pairs_canonical unique
// constraint backs the single-row-per-pair invariant at the storage layer.
type MatchedPairStore struct {
	pool *pgxpool.Pool
}

// NewMatchedPairStore creates a MatchedPairStore backed by the given pool.
func NewMatchedPairStore(pool *pgxpool.Pool) *MatchedPairStore {
	return &MatchedPairStore{pool: pool}
}

const pairColumns = `
	id, source_a, market_id_a, source_b, market_id_b,
	similarity, name_similarity, category_similarity, contract_similarity, temporal_proximity,
	classifier_probability, confirmed, confirmed_by, confirmed_at, notes,
	created_at, updated_at`

// Upsert inserts or updates the canonical record for the pair and returns
// the stored row. Confirmation fields survive score refreshes.
func (s *MatchedPairStore) Upsert(ctx context.Context, pair domain.MatchedPair) (domain.MatchedPair, error) {
	a, b := domain.CanonicalPairKey(
		domain.MarketKey{Source: pair.SourceA, MarketID: pair.MarketIDA},
		domain.MarketKey{Source: pair.SourceB, MarketID: pair.MarketIDB},
	)

	query := `
		INSERT INTO matched_pairs (
			source_a, market_id_a, source_b, market_id_b,
			similarity, name_similarity, category_similarity, contract_similarity, temporal_proximity,
			classifier_probability, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT ON CONSTRAINT matched_pairs_canonical DO UPDATE SET
			similarity             = EXCLUDED.similarity,
			name_similarity        = EXCLUDED.name_similarity,
			category_similarity    = EXCLUDED.category_similarity,
			contract_similarity    = EXCLUDED.contract_similarity,
			temporal_proximity     = EXCLUDED.temporal_proximity,
			classifier_probability = COALESCE(EXCLUDED.classifier_probability, matched_pairs.classifier_probability),
			notes                  = CASE WHEN EXCLUDED.notes <> '' THEN EXCLUDED.notes ELSE matched_pairs.notes END,
			updated_at             = NOW()
		RETURNING` + pairColumns

	row := s.pool.QueryRow(ctx, query,
		string(a.Source), a.MarketID, string(b.Source), b.MarketID,
		pair.Similarity, pair.NameSimilarity, pair.CategorySimilarity,
		pair.ContractSimilarity, pair.TemporalProximity,
		pair.ClassifierProbability, pair.Notes,
	)
	stored, err := scanPair(row)
	if err != nil {
		return domain.MatchedPair{}, fmt.Errorf("postgres: upsert matched pair %s/%s <-> %s/%s: %w",
			a.Source, a.MarketID, b.Source, b.MarketID, err)
	}
	return stored, nil
}

// Confirm marks the canonical pair as manually verified.
func (s *MatchedPairStore) Confirm(ctx context.Context, a, b domain.MarketKey, confirmedBy, notes string) (domain.MatchedPair, error) {
	ca, cb := domain.CanonicalPairKey(a, b)

	query := `
		UPDATE matched_pairs SET
			confirmed    = TRUE,
			confirmed_by = $5,
			confirmed_at = NOW(),
			notes        = CASE WHEN $6 <> '' THEN $6 ELSE notes END,
			updated_at   = NOW()
		WHERE source_a = $1 AND market_id_a = $2 AND source_b = $3 AND market_id_b = $4
		RETURNING` + pairColumns

	row := s.pool.QueryRow(ctx, query,
		string(ca.Source), ca.MarketID, string(cb.Source), cb.MarketID,
		confirmedBy, notes,
	)
	pair, err := scanPair(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MatchedPair{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MatchedPair{}, fmt.Errorf("postgres: confirm matched pair: %w", err)
	}
	return pair, nil
}

// Get returns the canonical record for the pair in either key order.
func (s *MatchedPairStore) Get(ctx context.Context, a, b domain.MarketKey) (domain.MatchedPair, error) {
	ca, cb := domain.CanonicalPairKey(a, b)

	query := `SELECT` + pairColumns + `
		FROM matched_pairs
		WHERE source_a = $1 AND market_id_a = $2 AND source_b = $3 AND market_id_b = $4`

	row := s.pool.QueryRow(ctx, query,
		string(ca.Source), ca.MarketID, string(cb.Source), cb.MarketID,
	)
	pair, err := scanPair(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MatchedPair{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MatchedPair{}, fmt.Errorf("postgres: get matched pair: %w", err)
	}
	return pair, nil
}

// List returns pairs passing the filter, sorted by similarity descending.
func (s *MatchedPairStore) List(ctx context.Context, filter domain.MatchedPairFilter) ([]domain.MatchedPair, error) {
	query := `SELECT` + pairColumns + `
		FROM matched_pairs
		WHERE similarity >= $1
		  AND ($2 = '' OR source_a = $2 OR source_b = $2)
		  AND (NOT $3 OR confirmed)
		ORDER BY similarity DESC`
	args := []any{filter.MinSimilarity, string(filter.Source), filter.ConfirmedOnly}
	if filter.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list matched pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.MatchedPair
	for rows.Next() {
		pair, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan matched pair: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

func scanPair(row pgx.Row) (domain.MatchedPair, error) {
	var p domain.MatchedPair
	var sourceA, sourceB string
	err := row.Scan(
		&p.ID, &sourceA, &p.MarketIDA, &sourceB, &p.MarketIDB,
		&p.Similarity, &p.NameSimilarity, &p.CategorySimilarity,
		&p.ContractSimilarity, &p.TemporalProximity,
		&p.ClassifierProbability, &p.Confirmed, &p.ConfirmedBy, &p.ConfirmedAt, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.MatchedPair{}, err
	}
	p.SourceA = domain.Source(sourceA)
	p.SourceB = domain.Source(sourceB)
	return p, nil
}
