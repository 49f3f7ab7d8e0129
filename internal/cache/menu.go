// Package cache keeps read projections in Redis so repeated reads
// skip the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deppfellow/cafe-menu/internal/model"
)

const menuKeyPrefix = "menu:"

// GenerationTTL keeps a menu's generation counter alive well past any
// in-flight read of that menu.
const GenerationTTL = 24 * time.Hour

// MenuKey is the Redis key holding the projection of menu id.
func MenuKey(id int64) string {
	return menuKeyPrefix + strconv.FormatInt(id, 10)
}

// GenerationKey is the Redis key counting invalidations of menu id.
func GenerationKey(id int64) string {
	return MenuKey(id) + ":gen"
}

// setIfCurrentSrc stores the projection only while the generation is the one
// the reader saw on its miss.
//
// KEYS[1] entry, KEYS[2] generation. ARGV[1] generation, ARGV[2] payload,
// ARGV[3] ttl in milliseconds (0 keeps the entry forever).
const setIfCurrentSrc = `
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`

// invalidateSrc bumps the generation and drops the entry in one step.
//
// KEYS[1] entry, KEYS[2] generation. ARGV[1] generation ttl in milliseconds.
const invalidateSrc = `
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
redis.call('DEL', KEYS[1])
return 1
`

var (
	setIfCurrent = redis.NewScript(setIfCurrentSrc)
	invalidate   = redis.NewScript(invalidateSrc)
)

// Store is the part of a go-redis client the cache uses.
// *redis.Client satisfies it.
type Store interface {
	redis.Scripter
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Lookup is the result of a cache read.
//
// Generation is the invalidation count seen with the read. A reader that
// missed passes it back to Set, which refuses to store once a write has
// invalidated the menu in between.
type Lookup struct {
	Menu       *model.GetMenuResponse
	Generation int64
}

// Hit reports whether the read found a cached projection.
func (l Lookup) Hit() bool {
	return l.Menu != nil
}

// MenuCache caches GetMenuResponse values as JSON.
//
// A nil *MenuCache is valid and behaves as an always-empty cache, which is
// what callers get when caching is disabled.
type MenuCache struct {
	client Store
	ttl    time.Duration
}

// NewMenuCache returns a cache over client. When ttl is zero entries never expire.
func NewMenuCache(client Store, ttl time.Duration) *MenuCache {
	return &MenuCache{client: client, ttl: ttl}
}

// Get returns the cached projection of id together with its generation.
func (c *MenuCache) Get(ctx context.Context, id int64) (Lookup, error) {
	if c == nil {
		return Lookup{}, nil
	}

	vals, err := c.client.MGet(ctx, MenuKey(id), GenerationKey(id)).Result()
	if err != nil {
		return Lookup{}, fmt.Errorf("get cached menu %d: %w", id, err)
	}

	var lookup Lookup
	if len(vals) > 1 {
		if raw, ok := vals[1].(string); ok {
			gen, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return Lookup{}, fmt.Errorf("parse generation of menu %d: %w", id, err)
			}
			lookup.Generation = gen
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return lookup, nil
	}

	var menu model.GetMenuResponse
	if err := json.Unmarshal([]byte(raw), &menu); err != nil {
		return Lookup{}, fmt.Errorf("decode cached menu %d: %w", id, err)
	}
	lookup.Menu = &menu
	return lookup, nil
}

// Set stores the projection if no invalidation happened since the Get that
// returned generation. It reports whether the entry was written.
func (c *MenuCache) Set(ctx context.Context, menu *model.GetMenuResponse, generation int64) (bool, error) {
	if c == nil {
		return false, nil
	}

	raw, err := json.Marshal(menu)
	if err != nil {
		return false, fmt.Errorf("encode menu %d: %w", menu.ID, err)
	}

	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{MenuKey(menu.ID), GenerationKey(menu.ID)},
		generation, string(raw), c.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("cache menu %d: %w", menu.ID, err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached projection of id and advances its generation,
// so reads that started before the write cannot store what they loaded.
func (c *MenuCache) Invalidate(ctx context.Context, id int64) error {
	if c == nil {
		return nil
	}

	err := invalidate.Run(ctx, c.client,
		[]string{MenuKey(id), GenerationKey(id)},
		GenerationTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("invalidate menu %d: %w", id, err)
	}
	return nil
}
