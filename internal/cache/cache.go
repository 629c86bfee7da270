// Package cache is the pure memoization layer of the pipeline: it maps request
// fingerprints to previously computed ranked results. TTL shrinks under
// degradation, capacity is LRU-bounded, and eviction runs on insert only.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"devassist.app/engine/internal/model"
)

// Entry is one memoized ranked result. Never returned once expired or after an
// explicit invalidation for its file.
type Entry struct {
	Key         Key
	Suggestions []model.Suggestion
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Evictions     int64 `json:"evictions"`
	Invalidations int64 `json:"invalidations"`
	Size          int   `json:"size"`
}

type Config struct {
	Capacity int           // entry count bound, default 1024
	BaseTTL  time.Duration // TTL at DegradationNormal, default 2m
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 1024
	}
	if c.BaseTTL <= 0 {
		c.BaseTTL = 2 * time.Minute
	}
	return c
}

type Cache struct {
	entries *lru.Cache[string, Entry]
	cfg     Config

	// byFile indexes live keys per file for invalidation. Guarded by mu;
	// never held while calling into the LRU.
	mu     sync.Mutex
	byFile map[string]map[string]struct{}

	hits          atomic.Int64
	misses        atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64

	now func() time.Time
}

func New(cfg Config) (*Cache, error) {
	c := &Cache{
		cfg:    cfg.withDefaults(),
		byFile: make(map[string]map[string]struct{}),
		now:    time.Now,
	}

	entries, err := lru.NewWithEvict(c.cfg.Capacity, func(key string, e Entry) {
		c.dropIndex(e.Key.FileID, key)
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// Get returns a live entry for key, or false on miss or expiry.
func (c *Cache) Get(key Key) (Entry, bool) {
	entry, ok := c.entries.Get(key.String())
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		c.entries.Remove(key.String())
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	return entry, true
}

// Put stores suggestions under key with a TTL scaled by the current
// degradation level. Last writer wins on identical keys.
func (c *Cache) Put(key Key, suggestions []model.Suggestion, level model.DegradationLevel) Entry {
	now := c.now()
	entry := Entry{
		Key:         key,
		Suggestions: suggestions,
		CreatedAt:   now,
		ExpiresAt:   now.Add(level.CacheTTL(c.cfg.BaseTTL)),
	}

	// Index before insert so a concurrent InvalidateFile can never miss a
	// live entry. A stale index key is harmless: Remove is a no-op.
	c.mu.Lock()
	keys, ok := c.byFile[key.FileID]
	if !ok {
		keys = make(map[string]struct{})
		c.byFile[key.FileID] = keys
	}
	keys[key.String()] = struct{}{}
	c.mu.Unlock()

	if evicted := c.entries.Add(key.String(), entry); evicted {
		c.evictions.Add(1)
	}

	return entry
}

// InvalidateFile removes every entry whose key was derived from fileID.
// Invalidating a file with no cached entries is a no-op.
func (c *Cache) InvalidateFile(fileID string) int {
	c.mu.Lock()
	var keys []string
	for k := range c.byFile[fileID] {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	for _, k := range keys {
		c.entries.Remove(k)
	}
	c.invalidations.Add(int64(len(keys)))
	return len(keys)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Size:          c.entries.Len(),
	}
}

func (c *Cache) dropIndex(fileID, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if keys, ok := c.byFile[fileID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byFile, fileID)
		}
	}
}
