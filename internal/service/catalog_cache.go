package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/dto"
	"github.com/Muletinha/projeto-emeece/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKeyProductPrefix = "product:"
	cacheKeyProductList   = "products:all"
)

// CatalogCache is a read-through cache of catalog responses in Redis.
// It is only consulted by catalog reads; the cart engine and checkout always
// go to the database. A nil *CatalogCache, or one without a client, is a
// permanent miss. Redis errors are logged and never returned.
type CatalogCache struct {
	rdb     *redis.Client
	breaker *infra.CircuitBreaker
	ttl     time.Duration
}

func NewCatalogCache(rdb *redis.Client, breaker *infra.CircuitBreaker, ttl time.Duration) *CatalogCache {
	if breaker == nil {
		breaker = infra.NewCircuitBreaker(infra.BreakerConfig{})
	}
	return &CatalogCache{rdb: rdb, breaker: breaker, ttl: ttl}
}

// BreakerState is reported by the health endpoint.
func (c *CatalogCache) BreakerState() string {
	if c == nil || c.rdb == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

func (c *CatalogCache) enabled() bool { return c != nil && c.rdb != nil }

func productKey(id int64) string { return cacheKeyProductPrefix + strconv.FormatInt(id, 10) }

func (c *CatalogCache) GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, bool) {
	var p dto.ProductResponse
	if !c.get(ctx, productKey(id), &p) {
		return nil, false
	}
	return &p, true
}

func (c *CatalogCache) SetProduct(ctx context.Context, p *dto.ProductResponse) {
	c.set(ctx, productKey(p.ID), p)
}

func (c *CatalogCache) GetList(ctx context.Context) ([]dto.ProductResponse, bool) {
	var list []dto.ProductResponse
	if !c.get(ctx, cacheKeyProductList, &list) {
		return nil, false
	}
	return list, true
}

func (c *CatalogCache) SetList(ctx context.Context, list []dto.ProductResponse) {
	c.set(ctx, cacheKeyProductList, list)
}

// Invalidate drops the given products and the list entry.
func (c *CatalogCache) Invalidate(ctx context.Context, ids ...int64) {
	if !c.enabled() {
		return
	}
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, cacheKeyProductList)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	err := c.breaker.Execute(func() error {
		return c.rdb.Del(ctx, keys...).Err()
	})
	if err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("catalog cache: invalidate failed")
	}
}

func (c *CatalogCache) get(ctx context.Context, key string, dst any) bool {
	if !c.enabled() {
		return false
	}
	var raw []byte
	err := c.breaker.Execute(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil // a miss is not a Redis failure
		}
		raw = b
		return err
	})
	if err != nil {
		if !errors.Is(err, infra.ErrBreakerOpen) {
			log.Warn().Err(err).Str("key", key).Msg("catalog cache: get failed")
		}
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache: corrupt entry")
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = c.breaker.Execute(func() error {
		return c.rdb.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil && !errors.Is(err, infra.ErrBreakerOpen) {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache: set failed")
	}
}
