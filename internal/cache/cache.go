package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-extractor-go/internal/logger"
	"github.com/anime-shed/doc-extractor-go/pkg/models"
)

// Key is the content-addressed fingerprint of one extraction: the hash of
// the image bytes combined with the hash of the canonical configuration
// serialization. Two equal configurations always produce the same key
// regardless of construction order.
type Key string

// NewKey derives a cache key from raw image bytes and a canonical
// configuration fingerprint.
func NewKey(imageBytes []byte, configFingerprint string) Key {
	imgSum := sha256.Sum256(imageBytes)
	cfgSum := sha256.Sum256([]byte(configFingerprint))
	return Key(hex.EncodeToString(imgSum[:]) + ":" + hex.EncodeToString(cfgSum[:]))
}

// entry is immutable once stored; it is fully built before it is
// published into the map, so a concurrent reader sees either no entry or
// a complete one.
type entry struct {
	result    models.ExtractionResult
	createdAt time.Time
	expiresAt time.Time
}

// ResultCache maps (image fingerprint, configuration fingerprint) pairs to
// previously computed extraction results with expiration. It is the only
// process-wide shared mutable resource in the pipeline.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[Key]entry
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries:   make(map[Key]entry),
		ttl:       ttl,
		stopSweep: make(chan struct{}),
	}
}

// StartSweeper runs a best-effort periodic eviction of expired entries
// until Stop is called. A stale read between expiration and sweep is
// tolerated because Get re-checks expiry.
func (c *ResultCache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep(time.Now())
			case <-c.stopSweep:
				return
			}
		}
	}()
}

// Stop terminates the background sweeper.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopSweep) })
}

// Get returns the cached result for key. An expired hit is treated as a
// miss.
func (c *ResultCache) Get(key Key) (models.ExtractionResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		c.mu.Lock()
		if ok {
			// Re-check under the write lock before evicting the stale entry.
			if cur, still := c.entries[key]; still && time.Now().After(cur.expiresAt) {
				delete(c.entries, key)
				c.evictions++
			}
		}
		c.misses++
		c.mu.Unlock()
		return models.ExtractionResult{}, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.result, true
}

// Put stores result under key. The entry is built completely before the
// single map insert, giving atomic-replace semantics. Each write also
// triggers a best-effort sweep.
func (c *ResultCache) Put(key Key, result models.ExtractionResult) {
	now := time.Now()
	e := entry{
		result:    result,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	c.sweep(now)
}

// Invalidate removes a single entry.
func (c *ResultCache) Invalidate(key Key) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.evictions++
	}
	c.mu.Unlock()
}

// Clear removes every entry older than maxAge and returns how many were
// evicted. Clear(0) empties the cache.
func (c *ResultCache) Clear(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if maxAge <= 0 || e.createdAt.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	c.evictions += int64(removed)
	if removed > 0 {
		logger.WithFields(logrus.Fields{"removed": removed, "max_age": maxAge}).
			Info("Cache cleared")
	}
	return removed
}

// Stats reports the admin-surface view of the cache. ApproxBytes counts
// only the dominant cost, the cached text.
func (c *ResultCache) Stats() models.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var approx int64
	for _, e := range c.entries {
		approx += int64(len(e.result.Text)) + int64(len(e.result.DetectedLanguage)) + 256
	}
	return models.CacheStats{
		Entries:     len(c.entries),
		ApproxBytes: approx,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
	}
}

func (c *ResultCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			c.evictions++
		}
	}
}
