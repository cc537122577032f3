// Package cache holds completed non-streaming pipeline results keyed by the
// normalized query text and the user's web-search toggle.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/degreefyd/assistant/internal/models"
)

// DefaultCapacity is the number of results kept when none is configured.
const DefaultCapacity = 128

// ResultCache is a bounded FIFO cache. Lookups use Peek so reads never
// refresh an entry; the oldest insertion is evicted once capacity is
// exceeded. Safe for concurrent use.
type ResultCache struct {
	entries *lru.Cache[string, models.PipelineResult]
}

// New creates a cache holding at most capacity results.
func New(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, models.PipelineResult](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultCache{entries: entries}, nil
}

// Key hashes the trimmed, lowercased query with the web toggle. Category and
// entities are not part of the key.
func Key(query string, web bool) string {
	normalized := strings.ToLower(strings.TrimSpace(query)) + "|" + strconv.FormatBool(web)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns a deep copy of the cached result for (query, web).
func (c *ResultCache) Get(query string, web bool) (*models.PipelineResult, bool) {
	r, ok := c.entries.Peek(Key(query, web))
	if !ok {
		return nil, false
	}
	r.Entities = r.Entities.Clone()
	return &r, true
}

// Put stores a non-streaming result. Streaming results are never cached and
// an existing entry for the key is kept as is. It reports whether the result
// was stored.
func (c *ResultCache) Put(query string, web bool, r *models.PipelineResult) bool {
	if r == nil || r.Streaming() {
		return false
	}
	stored := *r
	stored.Entities = r.Entities.Clone()
	found, _ := c.entries.ContainsOrAdd(Key(query, web), stored)
	return !found
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *ResultCache) Purge() {
	c.entries.Purge()
}
