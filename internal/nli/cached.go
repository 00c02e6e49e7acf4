package nli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/attributed-qa/autoais/internal/cache"
	"github.com/attributed-qa/autoais/internal/decision"
)

// Cached decorates a Classifier with an in-process LRU and an optional
// durable decision store. Lookup order is LRU, then store, then the inner
// classifier; results propagate back up so resumed runs skip inference.
type Cached struct {
	inner Classifier
	model string
	lru   *cache.LRUWithTTL[string, bool]
	store decision.Store
	ttl   time.Duration

	innerCalls atomic.Uint64
	lruHits    atomic.Uint64
	storeHits  atomic.Uint64
}

// CachedStats reports where classifications were served from.
type CachedStats struct {
	InnerCalls uint64
	LRUHits    uint64
	StoreHits  uint64
}

// NewCached wraps inner with caching. size bounds the in-process LRU;
// store may be nil; ttl governs durable entries.
func NewCached(inner Classifier, model string, size int, store decision.Store, ttl time.Duration) (*Cached, error) {
	lru, err := cache.NewLRUWithTTL[string, bool](size, 0)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModel
	}
	return &Cached{inner: inner, model: model, lru: lru, store: store, ttl: ttl}, nil
}

// Classify serves from cache when possible. Decision-store read or write
// failures fall back to the inner classifier rather than failing the record.
func (c *Cached) Classify(ctx context.Context, q Query) (bool, error) {
	key := decision.Key(q.String())

	if entailed, ok := c.lru.Get(key); ok {
		c.lruHits.Add(1)
		return entailed, nil
	}

	if c.store != nil {
		if d, err := c.store.Get(ctx, key); err == nil && d != nil {
			c.storeHits.Add(1)
			c.lru.Set(key, d.Entailed)
			return d.Entailed, nil
		}
	}

	c.innerCalls.Add(1)
	entailed, err := c.inner.Classify(ctx, q)
	if err != nil {
		return false, err
	}

	c.lru.Set(key, entailed)
	if c.store != nil {
		d := &decision.Decision{Entailed: entailed, Model: c.model, CreatedAt: time.Now()}
		_ = c.store.Set(ctx, key, d, c.ttl)
	}
	return entailed, nil
}

// Stats returns cache effectiveness counters.
func (c *Cached) Stats() CachedStats {
	return CachedStats{
		InnerCalls: c.innerCalls.Load(),
		LRUHits:    c.lruHits.Load(),
		StoreHits:  c.storeHits.Load(),
	}
}
