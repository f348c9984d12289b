package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/pmarb/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore backed by the given pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const upsertMarketQuery = `
	INSERT INTO markets (source, market_id, name, category, event_time, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (source, market_id) DO UPDATE SET
		name       = EXCLUDED.name,
		category   = EXCLUDED.category,
		event_time = EXCLUDED.event_time,
		updated_at = NOW()`

const upsertContractQuery = `
	INSERT INTO contracts (
		source, market_id, contract_id, name, side, outcome_type,
		bid_price, ask_price, last_price, volume
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (source, market_id, contract_id) DO UPDATE SET
		name         = EXCLUDED.name,
		side         = EXCLUDED.side,
		outcome_type = EXCLUDED.outcome_type,
		bid_price    = EXCLUDED.bid_price,
		ask_price    = EXCLUDED.ask_price,
		last_price   = EXCLUDED.last_price,
		volume       = EXCLUDED.volume`

// Upsert inserts or updates a market and replaces its contract rows.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin upsert market: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertMarketQuery,
		string(m.Source), m.MarketID, m.Name, m.Category, m.EventTime,
	); err != nil {
		return fmt.Errorf("postgres: upsert market %s/%s: %w", m.Source, m.MarketID, err)
	}

	// Stale contracts from a prior snapshot must not survive the refresh.
	if _, err := tx.Exec(ctx,
		"DELETE FROM contracts WHERE source = $1 AND market_id = $2",
		string(m.Source), m.MarketID,
	); err != nil {
		return fmt.Errorf("postgres: clear contracts %s/%s: %w", m.Source, m.MarketID, err)
	}

	for _, c := range m.Contracts {
		if _, err := tx.Exec(ctx, upsertContractQuery,
			string(m.Source), m.MarketID, c.ContractID, c.Name, c.Side,
			string(c.Outcome), c.BidPrice, c.AskPrice, c.LastPrice, c.Volume,
		); err != nil {
			return fmt.Errorf("postgres: upsert contract %s/%s/%s: %w",
				m.Source, m.MarketID, c.ContractID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit upsert market %s/%s: %w", m.Source, m.MarketID, err)
	}
	return nil
}

// UpsertBatch upserts markets one at a time inside their own transactions;
// a market and its contracts always land atomically.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	for _, m := range markets {
		if err := s.Upsert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a single market with its contracts.
func (s *MarketStore) Get(ctx context.Context, key domain.MarketKey) (domain.Market, error) {
	const query = `
		SELECT source, market_id, name, category, event_time
		FROM markets WHERE source = $1 AND market_id = $2`

	var m domain.Market
	var source string
	err := s.pool.QueryRow(ctx, query, string(key.Source), key.MarketID).Scan(
		&source, &m.MarketID, &m.Name, &m.Category, &m.EventTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Market{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get market %s/%s: %w", key.Source, key.MarketID, err)
	}
	m.Source = domain.Source(source)

	contracts, err := s.loadContracts(ctx, key)
	if err != nil {
		return domain.Market{}, err
	}
	m.Contracts = contracts
	return m, nil
}

// ListBySource returns all markets with contracts for one platform.
func (s *MarketStore) ListBySource(ctx context.Context, source domain.Source) ([]domain.Market, error) {
	const query = `
		SELECT source, market_id, name, category, event_time
		FROM markets WHERE source = $1 ORDER BY market_id`
	return s.queryMarkets(ctx, query, string(source))
}

// ListAll returns every market with contracts.
func (s *MarketStore) ListAll(ctx context.Context) ([]domain.Market, error) {
	const query = `
		SELECT source, market_id, name, category, event_time
		FROM markets ORDER BY source, market_id`
	return s.queryMarkets(ctx, query)
}

func (s *MarketStore) queryMarkets(ctx context.Context, query string, args ...any) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		var m domain.Market
		var source string
		if err := rows.Scan(&source, &m.MarketID, &m.Name, &m.Category, &m.EventTime); err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		m.Source = domain.Source(source)
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range markets {
		contracts, err := s.loadContracts(ctx, markets[i].Key())
		if err != nil {
			return nil, err
		}
		markets[i].Contracts = contracts
	}
	return markets, nil
}

func (s *MarketStore) loadContracts(ctx context.Context, key domain.MarketKey) ([]domain.Contract, error) {
	const query = `
		SELECT contract_id, name, side, outcome_type, bid_price, ask_price, last_price, volume
		FROM contracts WHERE source = $1 AND market_id = $2 ORDER BY contract_id`

	rows, err := s.pool.Query(ctx, query, string(key.Source), key.MarketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load contracts %s/%s: %w", key.Source, key.MarketID, err)
	}
	defer rows.Close()

	var contracts []domain.Contract
	for rows.Next() {
		c := domain.Contract{Source: key.Source, MarketID: key.MarketID}
		var outcome string
		if err := rows.Scan(
			&c.ContractID, &c.Name, &c.Side, &outcome,
			&c.BidPrice, &c.AskPrice, &c.LastPrice, &c.Volume,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan contract: %w", err)
		}
		c.Outcome = domain.OutcomeType(outcome)
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
