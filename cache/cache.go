// Package cache provides the short-lived read-through cache for trace
// results. It is injected behind an interface so tests can disable it
// without touching traversal logic.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/feature"
)

// TraceCache caches completed trace results keyed by the full query
// signature. Implementations must be safe for concurrent read/insert.
type TraceCache interface {
	Get(key string) (*feature.Collection, bool)
	Put(key string, result *feature.Collection)
	Len() int
	Purge()
}

// LRU is a bounded, fixed-TTL trace cache. Eviction is deterministic:
// expired entries first, then oldest.
type LRU struct {
	inner *expirable.LRU[string, *feature.Collection]
}

// NewLRU creates a trace cache holding at most size entries for at most ttl
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{
		inner: expirable.NewLRU[string, *feature.Collection](size, nil, ttl),
	}
}

func (c *LRU) Get(key string) (*feature.Collection, bool) {
	return c.inner.Get(key)
}

func (c *LRU) Put(key string, result *feature.Collection) {
	c.inner.Add(key, result)
}

func (c *LRU) Len() int {
	return c.inner.Len()
}

func (c *LRU) Purge() {
	c.inner.Purge()
}

// Noop is a disabled cache. Every lookup misses.
type Noop struct{}

func (Noop) Get(string) (*feature.Collection, bool)  { return nil, false }
func (Noop) Put(string, *feature.Collection)         {}
func (Noop) Len() int                                { return 0 }
func (Noop) Purge()                                  {}

// FromConfig builds a cache per configuration
func FromConfig(cfg config.CacheConfig) TraceCache {
	if !cfg.Enabled || cfg.Size <= 0 {
		return Noop{}
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Duration(config.DefaultCacheTTLSeconds) * time.Second
	}
	return NewLRU(cfg.Size, ttl)
}
