package metadata

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached memoizes resolved tokens for a short window. Degraded results are
// not cached so a provider hiccup is retried on the next lookup.
type Cached struct {
	next  Resolver
	cache *cache.Cache
}

// NewCached wraps next with a ttl cache.
func NewCached(next Resolver, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Resolve implements Resolver.
func (c *Cached) Resolve(ctx context.Context, token string) TokenInfo {
	if v, ok := c.cache.Get(token); ok {
		return v.(TokenInfo)
	}
	info := c.next.Resolve(ctx, token)
	if info.Available {
		c.cache.SetDefault(token, info)
	}
	return info
}
