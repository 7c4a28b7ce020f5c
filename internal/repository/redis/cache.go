package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through JSON cache for catalogue and analytics reads.
// Concurrent misses on one key share a single loader call.
type Cache struct {
	rdb   *redis.Client
	loads singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

// lookup decodes the value at key. A missing key reports hit=false.
func lookup[T any](ctx context.Context, rdb *redis.Client, key string) (v T, hit bool, err error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		return v, false, nil
	case err != nil:
		return v, false, err
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

func store(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}

// GetOrSetJSON returns the cached value at key or fills it from load.
// Loader errors are returned and nothing is cached; a failed write after a
// successful load is ignored.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if v, hit, err := lookup[T](ctx, c.rdb, key); err != nil || hit {
		return v, err
	}

	shared, err, _ := c.loads.Do(key, func() (any, error) {
		// another caller may have filled the key while we waited
		if v, hit, err := lookup[T](ctx, c.rdb, key); err != nil || hit {
			return v, err
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = store(ctx, c.rdb, key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := shared.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache %s: unexpected %T", key, shared)
	}
	return v, nil
}

// Apply drops whatever a broadcast change makes stale. Unknown change types
// are ignored.
func (c *Cache) Apply(ctx context.Context, ch Change) error {
	switch ch.Type {
	case ChangeEvent:
		return c.InvalidateEvent(ctx, ch.EventID)
	case ChangeBooking:
		return c.InvalidateAnalytics(ctx)
	}
	return nil
}

// InvalidateEvent drops the cached summary of the event and every cached
// page of the event list.
func (c *Cache) InvalidateEvent(ctx context.Context, eventID int64) error {
	stale := []string{KeyEventSummary(eventID)}

	pages, err := c.matching(ctx, keyEventListPattern())
	if err != nil {
		return err
	}
	return c.rdb.Del(ctx, append(stale, pages...)...).Err()
}

func (c *Cache) InvalidateAnalytics(ctx context.Context) error {
	return c.rdb.Del(ctx, KeyAnalyticsSummary()).Err()
}

func (c *Cache) matching(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
