// Package statscache serves merchant statistics from a bounded, TTL-limited cache
// so that classification never recomputes aggregates on the hot path.
package statscache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
	"github.com/Veraticus/kakeibo/internal/textnorm"
	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a user's statistics may lag their confirmed history.
const DefaultTTL = 5 * time.Minute

// Config configures the cache.
type Config struct {
	Now     func() time.Time
	TTL     time.Duration
	MaxCost int64
}

type entry struct {
	loadedAt time.Time
	stats    map[string]*model.MerchantStatistics
}

// Cache implements service.StatisticsSource on top of a HistoryStore.
// Entries are keyed per user; a stale or missing entry triggers one recompute
// no matter how many goroutines ask for it. Each invalidation bumps the user's
// generation, and a load started under an older generation is never stored.
type Cache struct {
	history     service.HistoryStore
	cache       *ristretto.Cache[string, entry]
	now         func() time.Time
	generations map[string]uint64
	loads       singleflight.Group
	ttl         time.Duration
	mu          sync.Mutex
}

// New creates a statistics cache backed by history.
func New(history service.HistoryStore, cfg Config) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 100_000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rc, err := ristretto.NewCache(&ristretto.Config[string, entry]{
		NumCounters: cfg.MaxCost * 10,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize statistics cache: %w", err)
	}

	return &Cache{
		history:     history,
		cache:       rc,
		now:         cfg.Now,
		generations: make(map[string]uint64),
		ttl:         cfg.TTL,
	}, nil
}

// GetMerchantStatistics returns the aggregate for merchant, or nil when the merchant has no history.
func (c *Cache) GetMerchantStatistics(ctx context.Context, userID, merchant string) (*model.MerchantStatistics, error) {
	key := textnorm.Normalize(merchant)
	if key == "" {
		return nil, nil
	}

	e, err := c.entryFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.stats[key], nil
}

// Refresh recomputes a user's statistics immediately.
func (c *Cache) Refresh(ctx context.Context, userID string) (int, error) {
	c.Invalidate(userID)
	e, err := c.entryFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(e.stats), nil
}

// Invalidate drops a user's cached statistics, including any load already in flight.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	c.generations[userID]++
	c.mu.Unlock()

	c.cache.Del(cacheKey(userID))
	c.cache.Wait()
}

func (c *Cache) generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID]
}

// Close releases the cache's background resources.
func (c *Cache) Close() {
	c.cache.Close()
}

func (c *Cache) entryFor(ctx context.Context, userID string) (entry, error) {
	key := cacheKey(userID)
	if e, ok := c.cache.Get(key); ok && c.now().Sub(e.loadedAt) < c.ttl {
		return e, nil
	}

	gen := c.generation(userID)
	v, err, _ := c.loads.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		stats, err := c.history.ComputeMerchantStatistics(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to compute merchant statistics: %w", err)
		}
		e := entry{loadedAt: c.now(), stats: stats}

		// The generation is re-read under the lock that Invalidate bumps it with,
		// so an invalidation either lands before this Set or deletes it afterwards.
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generations[userID] != gen {
			slog.Debug("Discarding statistics invalidated during load", "user_id", userID)
			return e, nil
		}
		if !c.cache.Set(key, e, int64(len(stats)+1)) {
			slog.Debug("Statistics cache rejected entry", "user_id", userID, "merchants", len(stats))
		}
		c.cache.Wait()
		slog.Debug("Recomputed merchant statistics", "user_id", userID, "merchants", len(stats))
		return e, nil
	})
	if err != nil {
		return entry{}, err
	}
	return v.(entry), nil
}

func cacheKey(userID string) string {
	return "merchant-stats:" + userID
}
