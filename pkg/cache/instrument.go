package cache

import (
	"context"
	"time"

	"github.com/matzehuels/pkgtrend/pkg/observability"
)

// Instrument wraps c so that every Get and Set reports to the registered
// observability.CacheHooks, labeled with the key kind.
func Instrument(c Cache) Cache {
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyKind(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyKind(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyKind(key), len(data))
	return nil
}
