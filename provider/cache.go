package provider

import (
	"container/list"
	"sync"
	"time"
)

// ProviderCache keeps initialized provider instances keyed by tenant and
// provider name so config lookups and Initialize calls are not repeated on
// every request. Entries are evicted LRU-first when the cache is full and
// lazily when their TTL expires.
type ProviderCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key      string
	provider PaymentProvider
	expires  time.Time
}

// NewProviderCache creates a cache with the given capacity and entry TTL
func NewProviderCache(capacity int, ttl time.Duration) *ProviderCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &ProviderCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns a cached provider instance, or nil if absent or expired
func (c *ProviderCache) Get(key string) PaymentProvider {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil
	}

	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && time.Now().After(entry.expires) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil
	}

	c.order.MoveToFront(elem)
	return entry.provider
}

// Set stores a provider instance, evicting the least recently used entry
// when the cache is at capacity
func (c *ProviderCache) Set(key string, p PaymentProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.provider = p
		entry.expires = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	elem := c.order.PushFront(&cacheEntry{
		key:      key,
		provider: p,
		expires:  time.Now().Add(c.ttl),
	})
	c.entries[key] = elem
}

// Invalidate removes a single entry, used when tenant config changes
func (c *ProviderCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}

// Len returns the number of cached entries
func (c *ProviderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
