package trace

import (
	"context"
	"sync"
	"time"

	"presence-sync/core/storage"

	"golang.org/x/sync/singleflight"
)

// Cache loads traces from object storage and keeps parsed traces for a TTL.
// Concurrent loads of the same object share one download.
type Cache struct {
	client storage.Client
	bucket string
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]cachedTrace
	sf      singleflight.Group
}

type cachedTrace struct {
	trace *Trace
	built time.Time
}

// NewCache creates a cache over bucket. A zero ttl disables caching but still
// deduplicates concurrent loads.
func NewCache(client storage.Client, bucket string, ttl time.Duration) *Cache {
	return &Cache{
		client:  client,
		bucket:  bucket,
		ttl:     ttl,
		entries: make(map[string]cachedTrace),
	}
}

// Get returns the parsed trace stored as object. Traces are shared between callers
// and must not be modified.
func (c *Cache) Get(ctx context.Context, object string) (*Trace, error) {
	c.mu.RLock()
	entry, ok := c.entries[object]
	c.mu.RUnlock()
	if ok && !c.expired(entry) {
		return entry.trace, nil
	}

	result, err, _ := c.sf.Do(object, func() (any, error) {
		// A load that finished while this caller waited may already be cached
		c.mu.RLock()
		entry, ok := c.entries[object]
		c.mu.RUnlock()
		if ok && !c.expired(entry) {
			return entry.trace, nil
		}

		t, err := LoadObject(ctx, c.client, c.bucket, object)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[object] = cachedTrace{trace: t, built: time.Now()}
			c.mu.Unlock()
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Trace), nil
}

// Invalidate drops the cached copy of object.
func (c *Cache) Invalidate(object string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, object)
}

func (c *Cache) expired(entry cachedTrace) bool {
	if c.ttl == 0 {
		return true
	}
	return time.Since(entry.built) > c.ttl
}
