package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/pool"
)

const (
	ReportKeyPrefix  = "bfp:report:"
	DefaultReportTTL = 10 * time.Minute
)

// ReportCache keeps computed pool reports in Redis, keyed by pool, season,
// sub-pool kind and week selection.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache returns a ReportCache. A non-positive ttl uses
// DefaultReportTTL.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

// ReportKey builds the cache key. An empty week list means the full season.
func ReportKey(poolName string, season int, kind pool.Kind, weeks []league.Week) string {
	sel := "all"
	if len(weeks) > 0 {
		parts := make([]string, len(weeks))
		for i, w := range weeks {
			parts[i] = strconv.Itoa(w)
		}
		sel = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%s%s:%d:%s:%s", ReportKeyPrefix, strings.ToLower(poolName), season, kind, sel)
}

// Get returns the cached report, or nil on a miss.
func (c *ReportCache) Get(ctx context.Context, key string) (*pool.Report, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r pool.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, r *pool.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return c.client.Set(ctx, key, string(b), c.ttl).Err()
}

// Invalidate drops every cached report for a pool and season, e.g. after
// new results are loaded.
func (c *ReportCache) Invalidate(ctx context.Context, poolName string, season int) (int, error) {
	match := fmt.Sprintf("%s%s:%d:*", ReportKeyPrefix, strings.ToLower(poolName), season)
	var n int
	iter := c.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, iter.Err()
}
