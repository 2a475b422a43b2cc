// Package reportcache caches rendered report text in Redis, keyed by corpus
// path and job parameters. A singleflight group collapses concurrent jobs
// for the same corpus into one engine run.
package reportcache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/erodriguezln/keyrank/pkg/config"
	pkgredis "github.com/erodriguezln/keyrank/pkg/redis"
)

const keyPrefix = "tally:"

// Cache stores rendered reports with a TTL.
type Cache struct {
	client *pkgredis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a report cache over the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *Cache {
	return &Cache{
		client: client,
		ttl:    cfg.CacheTTL,
		logger: slog.Default().With("component", "report-cache"),
	}
}

// Get returns the cached report for the given job parameters, if present.
func (c *Cache) Get(ctx context.Context, corpusPath string, workers int) (string, bool) {
	key := c.buildKey(corpusPath, workers)
	report, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "corpus", corpusPath, "key", key)
	return report, true
}

// Set stores a rendered report.
func (c *Cache) Set(ctx context.Context, corpusPath string, workers int, report string) {
	key := c.buildKey(corpusPath, workers)
	if err := c.client.Set(ctx, key, report, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached report or runs computeFn to produce it,
// collapsing concurrent callers with identical parameters onto a single run.
// The bool result reports whether the value came from cache.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	corpusPath string,
	workers int,
	computeFn func() (string, error),
) (string, bool, error) {
	if report, ok := c.Get(ctx, corpusPath, workers); ok {
		return report, true, nil
	}
	key := c.buildKey(corpusPath, workers)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if report, ok := c.Get(ctx, corpusPath, workers); ok {
			return report, nil
		}
		report, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, corpusPath, workers, report)
		return report, nil
	})
	if err != nil {
		return "", false, err
	}
	return val.(string), false, nil
}

// Invalidate removes every cached report.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating report cache: %w", err)
	}
	c.logger.Info("report cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counters for this process.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) buildKey(corpusPath string, workers int) string {
	raw := fmt.Sprintf("%s:workers=%d", corpusPath, workers)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
