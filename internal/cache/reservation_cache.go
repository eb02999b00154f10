package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"cigale/internal/entities"
)

const (
	DefaultSize = 64
	DefaultTTL  = 30 * time.Second
)

// Lister is the read side being cached.
type Lister interface {
	List(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error)
}

// ReservationCache memoises list results per filter. Entries expire after the
// TTL and the whole cache is purged by Invalidate after every mutation.
// Errors are never cached, and neither is a read that was in flight when an
// invalidation happened.
type ReservationCache struct {
	source     Lister
	entries    *expirable.LRU[string, entities.ReservationsList]
	mu         sync.Mutex
	generation uint64
	logger     *slog.Logger
}

func NewReservationCache(source Lister, size int, ttl time.Duration, logger *slog.Logger) *ReservationCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationCache{
		source:  source,
		entries: expirable.NewLRU[string, entities.ReservationsList](size, nil, ttl),
		logger:  logger.With("component", "reservation_cache"),
	}
}

func (c *ReservationCache) List(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error) {
	key := filter.Key()
	if cached, ok := c.entries.Get(key); ok {
		c.logger.DebugContext(ctx, "cache hit", "key", key)
		return cached, nil
	}

	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	list, err := c.source.List(ctx, filter)
	if err != nil {
		return entities.ReservationsList{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		c.logger.DebugContext(ctx, "discarding list read across invalidation", "key", key)
		return list, nil
	}
	c.entries.Add(key, list)
	return list, nil
}

func (c *ReservationCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries.Purge()
}

// OnChange matches the service change listener signature.
func (c *ReservationCache) OnChange(ctx context.Context, op, id string) {
	c.logger.DebugContext(ctx, "cache invalidated", "operation", op, "reservation_id", id)
	c.Invalidate()
}

func (c *ReservationCache) Len() int {
	return c.entries.Len()
}
