// ABOUTME: Figure extraction cache keyed by the sha256 of a figure's HTML, backed by an expirable LRU.
// ABOUTME: Extraction is a pure function of the HTML, so cached descriptors are reused across redraws.
package render

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/2389-research/datachat/chart"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cacheEntry holds one extraction outcome, including "not found".
type cacheEntry struct {
	desc chart.Descriptor
	ok   bool
}

// FigureCache memoizes chart.Extract. It is safe for concurrent use.
type FigureCache struct {
	lru  *expirable.LRU[string, cacheEntry]
	opts []chart.Option
}

// NewFigureCache creates a cache holding up to size outcomes for ttl. The
// extract options are applied to every miss, so they are part of the cache
// identity and fixed for its lifetime.
func NewFigureCache(size int, ttl time.Duration, opts ...chart.Option) *FigureCache {
	if size <= 0 {
		size = 256
	}
	return &FigureCache{
		lru:  expirable.NewLRU[string, cacheEntry](size, nil, ttl),
		opts: opts,
	}
}

// Extract returns the descriptor for f, extracting on a miss. The figure's
// insight is attached on every call since it is not part of the key.
func (c *FigureCache) Extract(f chart.Figure) (chart.Descriptor, bool) {
	key := cacheKey(f.HTML)
	entry, hit := c.lru.Get(key)
	if !hit {
		d, ok := chart.Extract(f.HTML, c.opts...)
		entry = cacheEntry{desc: d, ok: ok}
		c.lru.Add(key, entry)
	}
	if !entry.ok {
		return chart.Descriptor{}, false
	}
	return entry.desc.WithInsight(f.Insight), true
}

// Len returns the number of cached outcomes.
func (c *FigureCache) Len() int {
	return c.lru.Len()
}

// Clear removes all entries from the cache.
func (c *FigureCache) Clear() {
	c.lru.Purge()
}

// cacheKey generates a deterministic cache key from figure HTML.
func cacheKey(html string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(html)))
}
