package analyzer

import (
	"fmt"

	"github.com/maypok86/otter"

	"github.com/repolens/repolens/internal/parser"
)

// defaultCacheCapacity bounds the extraction cache entry count.
const defaultCacheCapacity = 16384

// ExtractionCache is a content-addressed arena of parser results keyed by
// file fingerprint. It is passed into runs explicitly rather than living as
// a process-wide singleton, so runs stay isolated and testable; two files
// with identical bytes share one entry by construction.
type ExtractionCache struct {
	cache otter.Cache[string, *parser.Result]
}

// NewExtractionCache creates a bounded extraction cache.
func NewExtractionCache(capacity int) (*ExtractionCache, error) {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	cache, err := otter.MustBuilder[string, *parser.Result](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction cache: %w", err)
	}
	return &ExtractionCache{cache: cache}, nil
}

// Get returns the cached result for a fingerprint.
func (c *ExtractionCache) Get(fingerprint string) (*parser.Result, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(fingerprint)
}

// Put stores a parse result under its file's fingerprint.
func (c *ExtractionCache) Put(fingerprint string, res *parser.Result) {
	if c == nil {
		return
	}
	c.cache.Set(fingerprint, res)
}

// Close releases the cache's internal resources.
func (c *ExtractionCache) Close() {
	if c != nil {
		c.cache.Close()
	}
}
