package provider

import (
	"context"
	"fmt"
	"time"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

// CacheKey identifies one adapter's answer for one pair.
type CacheKey struct {
	Provider string
	Base     currency.Code
	Target   currency.Code
}

func (k CacheKey) String() string {
	return fmt.Sprintf("provider_cache:%s:{%s:%s}", k.Provider, k.Base, k.Target)
}

// Store holds cached rates. Implementations must replace entries whole so
// concurrent readers never observe a partially written rate.
type Store interface {
	Get(ctx context.Context, key CacheKey) (rate.ExchangeRate, bool)
	Set(ctx context.Context, key CacheKey, r rate.ExchangeRate, ttl time.Duration) error
}

var _ Adapter = (*CachedAdapter)(nil)

// CachedAdapter wraps an Adapter with a read-through cache. Only
// successful live results are cached.
type CachedAdapter struct {
	next  Adapter
	store Store
	ttl   time.Duration
	onErr func(key CacheKey, err error)
}

// NewCachedAdapter creates a new CachedAdapter. A nil store disables caching.
func NewCachedAdapter(next Adapter, store Store, ttl time.Duration) *CachedAdapter {
	return &CachedAdapter{next: next, store: store, ttl: ttl}
}

// OnStoreError registers a callback for failed cache writes.
func (p *CachedAdapter) OnStoreError(fn func(key CacheKey, err error)) *CachedAdapter {
	p.onErr = fn
	return p
}

// Name reports the wrapped adapter's identity.
func (p *CachedAdapter) Name() string { return p.next.Name() }

// Resolve attempts to serve the rate from the store before calling the
// wrapped adapter.
func (p *CachedAdapter) Resolve(ctx context.Context, base, target currency.Code) Result {
	if p.store == nil {
		return p.next.Resolve(ctx, base, target)
	}

	key := CacheKey{Provider: p.next.Name(), Base: base, Target: target}
	if r, ok := p.store.Get(ctx, key); ok {
		return Success(r)
	}

	res := p.next.Resolve(ctx, base, target)
	if !res.OK() || res.Rate.Source() != rate.LiveProvider {
		return res
	}
	if err := p.store.Set(ctx, key, res.Rate, p.ttl); err != nil && p.onErr != nil {
		p.onErr(key, err)
	}
	return res
}
