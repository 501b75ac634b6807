package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads a resource from its upstream source of truth.
type FetchFunc func(ctx context.Context) (any, error)

// ReadThrough composes a [Cache] with upstream fetches: a hit returns the
// cached value, a miss fetches, populates the cache, and returns the fresh
// value.
//
// Concurrent misses on the same key share one upstream call. The fetch runs
// to completion even if the originating request goes away, so a cancelled
// client still warms the cache for the next caller.
type ReadThrough struct {
	cache Cache
	group singleflight.Group
}

// NewReadThrough creates a [ReadThrough] over the given cache.
func NewReadThrough(c Cache) *ReadThrough {
	return &ReadThrough{cache: c}
}

// Fetch returns the value for key, consulting the cache first.
//
// fromCache reports whether the value was served without an upstream call.
// Errors from fn propagate unchanged and nothing is cached for them; in
// particular a not-found from upstream is the caller's to interpret.
func (r *ReadThrough) Fetch(ctx context.Context, key string, ttl time.Duration, fn FetchFunc) (value any, fromCache bool, err error) {
	if v, ok := r.cache.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Recheck under the flight: another caller may have populated the
		// key between our miss and joining the group.
		if v, ok := r.cache.Get(key); ok {
			return v, nil
		}

		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		r.cache.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v, false, nil
}
