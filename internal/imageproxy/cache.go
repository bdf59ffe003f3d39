package imageproxy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize     = 256
	DefaultCacheMaxBytes = 64 << 20
	DefaultCacheTTL      = 24 * time.Hour
)

// CachedFetcher keeps successful fetches in an expirable LRU keyed by URL
// and collapses concurrent fetches of the same URL. Errors are not cached.
// The cache is bounded by entry count and by the total size of image bodies.
type CachedFetcher struct {
	next     ImageFetcher
	cache    *expirable.LRU[string, Image]
	group    singleflight.Group
	metrics  *Metrics
	maxBytes int64

	addMu sync.Mutex
	bytes atomic.Int64
}

func NewCachedFetcher(next ImageFetcher, size int, maxBytes int64, ttl time.Duration, metrics *Metrics) *CachedFetcher {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if maxBytes <= 0 {
		maxBytes = DefaultCacheMaxBytes
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachedFetcher{
		next:     next,
		metrics:  metrics,
		maxBytes: maxBytes,
	}
	// Runs under the LRU's lock for capacity, expiry and explicit removals.
	onEvict := func(_ string, img Image) {
		c.bytes.Add(-int64(len(img.Data)))
	}
	c.cache = expirable.NewLRU[string, Image](size, onEvict, ttl)
	return c
}

func (c *CachedFetcher) Fetch(ctx context.Context, url, referer string) (Image, error) {
	if img, ok := c.cache.Get(url); ok {
		c.metrics.recordCache("hit")
		return img, nil
	}
	c.metrics.recordCache("miss")

	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(url, func() (any, error) {
		img, err := c.next.Fetch(shared, url, referer)
		if err != nil {
			return Image{}, err
		}
		c.add(url, img)
		return img, nil
	})
	if err != nil {
		return Image{}, err
	}
	return v.(Image), nil
}

// add stores img and evicts the oldest entries until the byte budget holds.
// Images larger than the whole budget are served but never stored.
func (c *CachedFetcher) add(url string, img Image) {
	size := int64(len(img.Data))
	if size > c.maxBytes {
		return
	}

	c.addMu.Lock()
	defer c.addMu.Unlock()

	// Updating a key in place skips the eviction callback, so drop it first.
	c.cache.Remove(url)
	c.cache.Add(url, img)
	c.bytes.Add(size)
	for c.bytes.Load() > c.maxBytes {
		if _, _, ok := c.cache.RemoveOldest(); !ok {
			break
		}
	}
}

func (c *CachedFetcher) Len() int {
	return c.cache.Len()
}

// Bytes is the total size of cached image bodies.
func (c *CachedFetcher) Bytes() int64 {
	return c.bytes.Load()
}
