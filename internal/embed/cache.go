package embed

import (
	"context"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of distinct values a ValueCache keeps.
// At 256 dimensions that is about 4MB.
const DefaultCacheSize = 4096

// CacheStats counts how a ValueCache served its cells.
type CacheStats struct {
	Hits    int64 // cells served without calling the inner embedder
	Misses  int64 // distinct values handed to the inner embedder
	Entries int   // values currently cached
}

// ValueCache memoizes an Embedder by normalized cell value. A column with
// repeated values (cities, company names) embeds each distinct value once,
// and query values that repeat are served from memory.
//
// The inner embedder receives the normalized value. Returned vectors are
// copies the caller may modify.
type ValueCache struct {
	inner Embedder
	cache *lru.Cache[string, []float32]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewValueCache wraps inner with an LRU of size distinct values.
// A size <= 0 means DefaultCacheSize.
func NewValueCache(inner Embedder, size int) *ValueCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &ValueCache{inner: inner, cache: cache}
}

// NewDefaultValueCache is a ValueCache over the static embedder.
func NewDefaultValueCache() *ValueCache {
	return NewValueCache(NewStaticEmbedder(), DefaultCacheSize)
}

// Embed returns the vector of value. Blank values are not cached.
func (c *ValueCache) Embed(ctx context.Context, value string) ([]float32, error) {
	key := Normalize(value)
	if key == "" {
		return make([]float32, c.inner.Dimensions()), nil
	}
	if vec, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return slices.Clone(vec), nil
	}

	vec, err := c.inner.Embed(ctx, key)
	if err != nil {
		return nil, err
	}
	c.misses.Add(1)
	c.cache.Add(key, vec)
	return slices.Clone(vec), nil
}

// EmbedColumn embeds a column, calling the inner embedder once with the
// distinct uncached values.
func (c *ValueCache) EmbedColumn(ctx context.Context, values []string) ([][]float32, error) {
	out := make([][]float32, len(values))
	keys := make([]string, len(values))
	found := make(map[string][]float32)
	var missing []string
	for i, value := range values {
		keys[i] = Normalize(value)
		if keys[i] == "" {
			continue
		}
		if _, seen := found[keys[i]]; seen {
			continue
		}
		if vec, ok := c.cache.Get(keys[i]); ok {
			found[keys[i]] = vec
			continue
		}
		found[keys[i]] = nil
		missing = append(missing, keys[i])
	}

	if len(missing) > 0 {
		embedded, err := c.inner.EmbedColumn(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i, key := range missing {
			found[key] = embedded[i]
			c.cache.Add(key, embedded[i])
		}
		c.misses.Add(int64(len(missing)))
	}

	var hits int64
	for i, key := range keys {
		if key == "" {
			out[i] = make([]float32, c.inner.Dimensions())
			continue
		}
		out[i] = slices.Clone(found[key])
		hits++
	}
	c.hits.Add(hits - int64(len(missing)))
	return out, nil
}

// Dimensions returns the inner embedder's dimension.
func (c *ValueCache) Dimensions() int {
	return c.inner.Dimensions()
}

// Name returns the inner embedder's scheme.
func (c *ValueCache) Name() string {
	return c.inner.Name()
}

// Stats returns the counters accumulated so far.
func (c *ValueCache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.cache.Len(),
	}
}

var _ Embedder = (*ValueCache)(nil)
