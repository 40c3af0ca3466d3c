package recurrence

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// rulesetEntry is a cached compiled ruleset.
type rulesetEntry struct {
	ruleset    *Ruleset
	expiresAt  time.Time
	accessedAt time.Time
}

// RulesetCache caches compiled rulesets keyed by their start instant and
// source text. Compiling RFC 5545 text is the expensive part of answering an
// occurrence query, and the same schedule definitions are compiled over and
// over by transmission queries.
type RulesetCache struct {
	entries         map[string]*rulesetEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the ruleset cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewRulesetCache creates a cache with the given configuration and starts
// its cleanup loop. Call Close when done with it.
func NewRulesetCache(config CacheConfig) *RulesetCache {
	cache := &RulesetCache{
		entries:         make(map[string]*rulesetEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	go cache.cleanupLoop()
	return cache
}

func cacheKey(dtstart time.Time, text string) string {
	hasher := sha256.New()
	hasher.Write([]byte(dtstart.Format(time.RFC3339Nano)))
	hasher.Write([]byte{0})
	hasher.Write([]byte(text))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a compiled ruleset if present and not expired. The returned
// ruleset is a clone; callers may mutate it freely.
func (c *RulesetCache) Get(dtstart time.Time, text string) (*Ruleset, bool) {
	key := cacheKey(dtstart, text)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	return entry.ruleset.Clone(), true
}

// Set stores a compiled ruleset. The cache keeps its own clone.
func (c *RulesetCache) Set(dtstart time.Time, text string, rs *Ruleset) {
	key := cacheKey(dtstart, text)
	now := time.Now()

	entry := &rulesetEntry{
		ruleset:    rs.Clone(),
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries, then the least recently accessed entries
// while still over the limit. Caller holds the write lock.
func (c *RulesetCache) cleanup() {
	now := time.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) > c.maxEntries {
		type keyAccess struct {
			key        string
			accessedAt time.Time
		}
		var byAge []keyAccess
		for key, entry := range c.entries {
			byAge = append(byAge, keyAccess{key: key, accessedAt: entry.accessedAt})
		}
		sort.Slice(byAge, func(i, j int) bool {
			return byAge[i].accessedAt.Before(byAge[j].accessedAt)
		})

		toRemove := len(c.entries) - c.maxEntries
		for i := 0; i < toRemove && i < len(byAge); i++ {
			delete(c.entries, byAge[i].key)
		}
	}
}

func (c *RulesetCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache.
func (c *RulesetCache) Close() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*rulesetEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics.
func (c *RulesetCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := time.Now()

	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache occupancy.
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
