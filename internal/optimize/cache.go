package optimize

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"bess-valuation/internal/analysis"
	"bess-valuation/internal/metrics"
	"bess-valuation/internal/model"
)

type cacheEntry struct {
	result    analysis.ClusterResult
	expiresAt time.Time
}

// clusterCache memoizes clustering per engine. Keys hash the demand series
// and clustering parameters, so identical inputs skip k-means.
type clusterCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

func newClusterCache(ttl time.Duration) *clusterCache {
	if ttl <= 0 {
		return nil
	}
	return &clusterCache{store: make(map[string]*cacheEntry), ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached result, safe for the caller to modify.
func (c *clusterCache) Get(key string) (analysis.ClusterResult, bool) {
	if c == nil {
		return analysis.ClusterResult{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		metrics.ClusterCacheLookups.WithLabelValues("miss").Inc()
		return analysis.ClusterResult{}, false
	}
	metrics.ClusterCacheLookups.WithLabelValues("hit").Inc()
	return entry.result.Clone(), true
}

func (c *clusterCache) Set(key string, res analysis.ClusterResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.store {
		if now.After(e.expiresAt) {
			delete(c.store, k)
		}
	}
	c.store[key] = &cacheEntry{result: res.Clone(), expiresAt: now.Add(c.ttl)}
}

func (c *clusterCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func clusterKey(samples []model.LoadSample, k int, seed int64) string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(k))
	put(uint64(seed))
	for _, s := range samples {
		put(uint64(s.Timestamp.UnixNano()))
		put(math.Float64bits(s.DemandKW))
	}
	return hex.EncodeToString(h.Sum(nil))
}
