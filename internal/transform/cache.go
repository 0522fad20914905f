package transform

import (
	"fmt"
	"hash/fnv"
	"log"

	"github.com/foliolib/folio/internal/lru"
)

// Cache memoizes pipeline output per (book, settings) so re-opening a
// chapter does not re-run every stage. One cache per content kind; the
// underlying LRU is not synchronized, so a cache instance belongs to a
// single owner.
type Cache struct {
	cache *lru.Cache[string, string]
}

// NewCache creates a pipeline cache bounded to capacity documents.
func NewCache(capacity int) (*Cache, error) {
	c, err := lru.New(capacity, func(key string, _ string) {
		log.Printf("[TRANSFORM] evicted cached content for %s", key)
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cache: c}, nil
}

// Run returns the cached output for tc when present, otherwise runs the
// pipeline and caches its result. Errors are never cached.
func (c *Cache) Run(tc *Context) (string, error) {
	key := cacheKey(tc)
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}
	out, err := Run(tc)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, out)
	return out, nil
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// cacheKey fingerprints every pipeline input that can change the output.
// Stage idempotence keeps this stable across repeated runs.
func cacheKey(tc *Context) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%v|%s|%dx%d|%v|%v|",
		tc.BookKey, tc.ViewSettings, tc.PrimaryLanguage,
		tc.Width, tc.Height, tc.ReversePunctuation, tc.Transformers)
	h.Write([]byte(tc.Content))
	return tc.BookKey + "#" + fmt.Sprintf("%x", h.Sum64())
}
