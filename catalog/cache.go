package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/gamelog/core/logger"
)

// CacheConfig holds catalog cache settings.
type CacheConfig struct {
	TTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"24h"`
}

// Cache decorates a Source with per-game Redis entries. Catalog metadata
// changes rarely, so the home page usually renders without touching the
// API at all. Cache failures degrade to the wrapped source.
type Cache struct {
	src Source
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// NewCache creates a caching wrapper around src.
func NewCache(src Source, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = logger.Discard()
	}
	return &Cache{src: src, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("catalog:game:%d", id)
}

// GamesByID implements Source. Hits come from Redis; misses are fetched
// from the wrapped source in one batch and written back with the TTL.
// Results keep the order of ids.
func (c *Cache) GamesByID(ctx context.Context, ids ...int64) ([]Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	found := make(map[int64]Game, len(ids))
	var misses []int64

	cached, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.WarnContext(ctx, "catalog cache read failed", logger.Error(err))
		misses = ids
	} else {
		for i, raw := range cached {
			s, ok := raw.(string)
			if !ok {
				misses = append(misses, ids[i])
				continue
			}
			var g Game
			if err := json.Unmarshal([]byte(s), &g); err != nil {
				misses = append(misses, ids[i])
				continue
			}
			found[ids[i]] = g
		}
	}

	if len(misses) > 0 {
		fetched, err := c.src.GamesByID(ctx, misses...)
		if err != nil {
			return nil, err
		}
		for _, g := range fetched {
			found[g.ID] = g
			if data, err := json.Marshal(g); err == nil {
				if err := c.rdb.Set(ctx, cacheKey(g.ID), data, c.ttl).Err(); err != nil {
					c.log.WarnContext(ctx, "catalog cache write failed",
						logger.GameID(g.ID), logger.Error(err))
				}
			}
		}
	}

	games := make([]Game, 0, len(found))
	for _, id := range ids {
		if g, ok := found[id]; ok {
			games = append(games, g)
		}
	}
	return games, nil
}
