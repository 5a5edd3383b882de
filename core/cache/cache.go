// Package cache keeps recently resolved reference queries in memory.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// EvictReason says why an entry left the cache.
type EvictReason string

const (
	// EvictCapacity means the least recently used entry made room for a new one.
	EvictCapacity EvictReason = "capacity"
	// EvictExpired means the entry outlived the TTL and was dropped on lookup.
	EvictExpired EvictReason = "expired"
)

// Stats contains cache statistics.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Expired   int64 `json:"expired"`
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
}

// Add returns the sum of two snapshots.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Hits:      s.Hits + o.Hits,
		Misses:    s.Misses + o.Misses,
		Evictions: s.Evictions + o.Evictions,
		Expired:   s.Expired + o.Expired,
		Size:      s.Size + o.Size,
		MaxSize:   s.MaxSize + o.MaxSize,
	}
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict, when set, is called after an entry is dropped, outside the
	// cache lock. query is the normalized form.
	OnEvict func(mode, query string, reason EvictReason)
}

type entry[V any] struct {
	mode      string
	query     string
	value     V
	expiresAt time.Time
}

func (e *entry[V]) key() string {
	return e.mode + "\x00" + e.query
}

// QueryCache is a thread-safe LRU of results keyed by a mode and a reference
// query. Queries that differ only in case or spacing share an entry, since
// resolution is insensitive to both.
type QueryCache[V any] struct {
	mu      sync.Mutex
	config  Config
	entries map[string]*list.Element
	order   *list.List
	stats   Stats
}

// NewQueryCache creates a query cache with the given configuration.
func NewQueryCache[V any](config Config) *QueryCache[V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &QueryCache[V]{
		config:  config,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// QueryKey returns the cache key for a query under mode.
func QueryKey(mode, query string) string {
	return mode + "\x00" + normalize(query)
}

// Get retrieves the cached result for a query.
func (c *QueryCache[V]) Get(mode, query string) (V, bool) {
	var zero V
	c.mu.Lock()
	el, ok := c.entries[QueryKey(mode, query)]
	if !ok {
		c.stats.Misses++
		c.mu.Unlock()
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.config.TTL > 0 && time.Now().After(e.expiresAt) {
		c.remove(el)
		c.stats.Misses++
		c.stats.Expired++
		c.mu.Unlock()
		c.evicted(e, EvictExpired)
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	c.mu.Unlock()
	return e.value, true
}

// Put stores the result for a query, dropping the least recently used entry
// when the cache is full.
func (c *QueryCache[V]) Put(mode, query string, value V) {
	e := &entry[V]{mode: mode, query: normalize(query), value: value}
	if c.config.TTL > 0 {
		e.expiresAt = time.Now().Add(c.config.TTL)
	}

	c.mu.Lock()
	if el, ok := c.entries[e.key()]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		c.mu.Unlock()
		return
	}
	c.entries[e.key()] = c.order.PushFront(e)

	var dropped *entry[V]
	if c.config.MaxSize > 0 && c.order.Len() > c.config.MaxSize {
		oldest := c.order.Back()
		dropped = oldest.Value.(*entry[V])
		c.remove(oldest)
		c.stats.Evictions++
	}
	c.mu.Unlock()

	if dropped != nil {
		c.evicted(dropped, EvictCapacity)
	}
}

// GetOrCompute returns the cached result or computes and stores it.
func (c *QueryCache[V]) GetOrCompute(mode, query string, compute func() V) V {
	if v, ok := c.Get(mode, query); ok {
		return v
	}
	v := compute()
	c.Put(mode, query, v)
	return v
}

// Clear removes all entries. Cleared entries are not reported to OnEvict.
func (c *QueryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of entries in the cache.
func (c *QueryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics.
func (c *QueryCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *QueryCache[V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry[V]).key())
}

func (c *QueryCache[V]) evicted(e *entry[V], reason EvictReason) {
	if c.config.OnEvict != nil {
		c.config.OnEvict(e.mode, e.query, reason)
	}
}
