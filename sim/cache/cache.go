// Package cache keeps processed events and live counters in Redis for the
// gateway's hot path.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// recentEventsKey is the sorted set of the latest processed event ids,
	// scored by processing time.
	recentEventsKey = "live:recent_events"

	// recentEventsLimit caps the sorted set size.
	recentEventsLimit = 100

	// CounterEventsProcessed tracks the pipeline's processed-event total.
	CounterEventsProcessed = "stats:events_processed"

	// DefaultTTL is how long a processed event stays cached.
	DefaultTTL = time.Hour
)

// eventKey builds the cache key for a processed event.
func eventKey(eventID string) string {
	return fmt.Sprintf("event:%s:processed", eventID)
}

// Cache wraps a Redis client with the pipeline's key scheme.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis at addr using the given logical database.
func New(addr string, db int) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		ttl: DefaultTTL,
	}
}

// NewWithClient wraps an existing client (tests hand in their own).
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// CacheEvent stores a processed event payload under its id with the
// configured TTL.
func (c *Cache) CacheEvent(ctx context.Context, eventID string, payload []byte) error {
	if err := c.rdb.Set(ctx, eventKey(eventID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache event %s: %w", eventID, err)
	}
	return nil
}

// GetEvent returns the cached payload for an event id, or nil on a miss.
func (c *Cache) GetEvent(ctx context.Context, eventID string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, eventKey(eventID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached event %s: %w", eventID, err)
	}
	return payload, nil
}

// AddRecent records an event id in the recent-events set and trims the set
// to its cap.
func (c *Cache) AddRecent(ctx context.Context, eventID string, at time.Time) error {
	pipe := c.rdb.TxPipeline()
	pipe.ZAdd(ctx, recentEventsKey, redis.Z{
		Score:  float64(at.UnixNano()) / float64(time.Second),
		Member: eventID,
	})
	pipe.ZRemRangeByRank(ctx, recentEventsKey, 0, -(recentEventsLimit + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent event %s: %w", eventID, err)
	}
	return nil
}

// RecentEvents returns up to count of the latest event ids, newest first.
func (c *Cache) RecentEvents(ctx context.Context, count int) ([]string, error) {
	ids, err := c.rdb.ZRevRange(ctx, recentEventsKey, 0, int64(count-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return ids, nil
}

// IncrCounter increments a stats counter and returns the new value.
func (c *Cache) IncrCounter(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
