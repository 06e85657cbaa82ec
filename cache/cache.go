package cache

import (
	"sync"
	"time"

	"github.com/use-agent/scrapeview/export"
)

// cleanupInterval is how often expired artifacts are swept.
const cleanupInterval = 5 * time.Minute

// entry holds a stored artifact with its creation timestamp.
type entry struct {
	artifact  *export.Artifact
	createdAt time.Time
}

// Cache is a bounded in-memory store of export artifacts keyed by file
// name. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache holding at most maxEntries artifacts, each kept for
// ttl. A background goroutine runs every 5 minutes to evict expired
// entries until Close is called. A non-positive ttl disables expiry.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Get returns the artifact stored under name if it has not expired.
func (c *Cache) Get(name string) (*export.Artifact, bool) {
	c.mu.RLock()
	e, ok := c.store[name]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		return nil, false
	}
	return e.artifact, true
}

// Set stores an artifact under its name. If the cache is at capacity,
// a random entry is evicted to make room.
func (c *Cache) Set(a *export.Artifact) {
	if a == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random, so this drops an arbitrary entry.
	if _, replacing := c.store[a.Name]; !replacing && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[a.Name] = &entry{
		artifact:  a,
		createdAt: c.now(),
	}
}

// Len reports how many artifacts are stored, expired ones included until
// the next sweep.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl
}

// sweep drops every expired entry.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if c.expired(e) {
			delete(c.store, k)
		}
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}
