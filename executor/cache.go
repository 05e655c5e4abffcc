package executor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/magnetcad/pipeline/taxonomy"
)

// cacheEntry pairs a cached result with the wall-clock time it expires.
type cacheEntry struct {
	Result    taxonomy.ValidationResult
	ExpiresAt time.Time
}

// Cache holds the most recent ValidationResult per (validator id, input
// hash), honoring each entry's TTL (spec.md §4.4 step 3: "a cache hit
// requires both a matching input hash and an unexpired TTL"). When dir is
// non-empty, entries are additionally mirrored to disk as JSON files so a
// cache survives process restarts — grounded on the same read/write-file
// idiom the config loader uses for its own persistence.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	dir     string
}

// NewCache returns an in-memory cache. If dir is non-empty it is created (if
// missing) and used as a disk-backed mirror.
func NewCache(dir string) (*Cache, error) {
	c := &Cache{entries: make(map[string]cacheEntry), dir: dir}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func cacheKey(validatorID, inputHash string) string {
	return validatorID + "@" + inputHash
}

// Get returns the cached result for (validatorID, inputHash) if present and
// not expired.
func (c *Cache) Get(validatorID, inputHash string) (taxonomy.ValidationResult, bool) {
	key := cacheKey(validatorID, inputHash)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		entry, ok = c.loadFromDisk(key)
		if !ok {
			return taxonomy.ValidationResult{}, false
		}
	}
	if time.Now().After(entry.ExpiresAt) {
		return taxonomy.ValidationResult{}, false
	}
	return entry.Result, true
}

// Put stores result under (validatorID, inputHash) with the given TTL.
func (c *Cache) Put(validatorID, inputHash string, result taxonomy.ValidationResult, ttl time.Duration) {
	key := cacheKey(validatorID, inputHash)
	entry := cacheEntry{Result: result, ExpiresAt: time.Now().Add(ttl)}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	if c.dir != "" {
		c.saveToDisk(key, entry)
	}
}

func (c *Cache) diskPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) saveToDisk(key string, entry cacheEntry) {
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.diskPath(key), b, 0o644)
}

func (c *Cache) loadFromDisk(key string) (cacheEntry, bool) {
	if c.dir == "" {
		return cacheEntry{}, false
	}
	b, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return cacheEntry{}, false
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	return entry, true
}
