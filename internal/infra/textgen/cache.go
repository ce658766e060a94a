package textgen

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// CacheEntry is one cached response. Entries are immutable once written
// and never evicted; unbounded growth of the snapshot file is an accepted
// trade-off for a single-tenant deployment.
type CacheEntry struct {
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
}

// Cache is a content-addressed response store keyed by (variant, request
// text). The whole map is loaded from the snapshot file at construction
// and rewritten on every Set. A missing or unparsable snapshot yields an
// empty cache, never an error.
type Cache struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]CacheEntry
}

// NewCache creates a cache backed by the given snapshot file.
func NewCache(path string) *Cache {
	return newCache(path, time.Now)
}

func newCache(path string, now func() time.Time) *Cache {
	c := &Cache{
		path:    path,
		now:     now,
		entries: make(map[string]CacheEntry),
	}
	c.load()
	return c
}

// cacheKey derives the deterministic content address for a request.
func cacheKey(variant, text string) string {
	sum := sha256.Sum256([]byte(variant + ":" + text))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("response cache unreadable, starting empty",
				slog.String("path", c.path),
				slog.Any("error", err))
		}
		return
	}

	var entries map[string]CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("response cache malformed, starting empty",
			slog.String("path", c.path),
			slog.Any("error", err))
		return
	}

	c.entries = entries
	slog.Info("response cache loaded",
		slog.String("path", c.path),
		slog.Int("entries", len(entries)))
}

// persist rewrites the whole snapshot. Caller must hold c.mu. Losing the
// very last write on an ungraceful crash is tolerated.
func (c *Cache) persist() {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		slog.Error("response cache marshal failed", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		slog.Error("response cache write failed",
			slog.String("path", c.path),
			slog.Any("error", err))
	}
}

// Get returns the cached entry for a request, if present.
func (c *Cache) Get(variant, text string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(variant, text)]
	return entry, ok
}

// Set stores a response and persists the snapshot. Concurrent writes to
// the same key are last-write-wins; identical keys carry identical
// content, so the race is benign.
func (c *Cache) Set(variant, text, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(variant, text)] = CacheEntry{
		Response:  response,
		Timestamp: c.now().Unix(),
	}
	c.persist()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
