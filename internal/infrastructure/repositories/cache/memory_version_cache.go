package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupFactor = 2

// MemoryVersionCache keeps resolved versions in process memory. Warm Lambda
// containers reuse it across invocations.
type MemoryVersionCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewMemoryVersionCache creates a cache whose entries expire after ttl.
func NewMemoryVersionCache(ttl time.Duration) *MemoryVersionCache {
	return &MemoryVersionCache{
		store: gocache.New(ttl, cleanupFactor*ttl),
		ttl:   ttl,
	}
}

// WithTTL returns a view of the same entries that stores new ones with ttl.
func (it *MemoryVersionCache) WithTTL(ttl time.Duration) *MemoryVersionCache {
	return &MemoryVersionCache{store: it.store, ttl: ttl}
}

func (it *MemoryVersionCache) Get(_ context.Context, name string) (string, bool, error) {
	value, found := it.store.Get(name)
	if !found {
		return "", false, nil
	}
	version, ok := value.(string)
	return version, ok, nil
}

func (it *MemoryVersionCache) Set(_ context.Context, name, version string) error {
	it.store.Set(name, version, it.ttl)
	return nil
}

// Len returns the number of unexpired entries.
func (it *MemoryVersionCache) Len() int {
	return it.store.ItemCount()
}
