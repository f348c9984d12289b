package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/pmarb/internal/domain"
)

const marketTTL = 5 * time.Minute

// MarketCache implements domain.MarketCache using Redis hashes with JSON-
// serialized Market data.
//
// Key schema:
//
//	market:{source}:{marketID} - hash with field "data" containing JSON
type MarketCache struct {
	rdb *redis.Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{rdb: c.Underlying()}
}

func marketKey(key domain.MarketKey) string {
	return "market:" + string(key.Source) + ":" + key.MarketID
}

// Set stores a Market in the cache with a 5-minute TTL.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market %s: %w", market.MarketID, err)
	}

	key := marketKey(market.Key())

	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, marketTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set market %s: %w", market.MarketID, err)
	}
	return nil
}

// Get retrieves a Market by its source and ID from the cache.
// It returns domain.ErrNotFound when the key does not exist.
func (mc *MarketCache) Get(ctx context.Context, key domain.MarketKey) (domain.Market, error) {
	data, err := mc.rdb.HGet(ctx, marketKey(key), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", key.MarketID, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", key.MarketID, err)
	}
	return market, nil
}

// SetAll stores a batch of markets in a single pipeline round trip.
func (mc *MarketCache) SetAll(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	pipe := mc.rdb.TxPipeline()
	for _, market := range markets {
		data, err := json.Marshal(market)
		if err != nil {
			return fmt.Errorf("redis: marshal market %s: %w", market.MarketID, err)
		}
		key := marketKey(market.Key())
		pipe.HSet(ctx, key, "data", data)
		pipe.Expire(ctx, key, marketTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set markets: %w", err)
	}
	return nil
}
