package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// CachedPackageIndexRepository answers from the cache before asking the
// wrapped index. Cache failures are logged and never fail a lookup.
type CachedPackageIndexRepository struct {
	index repositories.PackageIndexRepository
	cache repositories.VersionCacheRepository
	scope string
}

// NewCachedPackageIndexRepository decorates index with cache. Entries are
// keyed under scope, usually the index URL.
func NewCachedPackageIndexRepository(
	index repositories.PackageIndexRepository,
	cache repositories.VersionCacheRepository,
	scope string,
) *CachedPackageIndexRepository {
	return &CachedPackageIndexRepository{index: index, cache: cache, scope: scope}
}

func (it *CachedPackageIndexRepository) LatestVersion(ctx context.Context, name string) (string, error) {
	key := it.key(name)
	version, found, err := it.cache.Get(ctx, key)
	if err != nil {
		logger.Warnf("[cache] %v", err)
	}
	if found {
		logger.Debugf("[cache] hit for %s: %s", name, version)
		return version, nil
	}

	version, err = it.index.LatestVersion(ctx, name)
	if err != nil {
		return "", err
	}

	if setErr := it.cache.Set(ctx, key, version); setErr != nil {
		logger.Warnf("[cache] %v", setErr)
	}
	return version, nil
}

func (it *CachedPackageIndexRepository) key(name string) string {
	if it.scope == "" {
		return name
	}
	return it.scope + "|" + name
}

var (
	memoryOnce   sync.Once
	memoryShared *MemoryVersionCache

	redisMu      sync.Mutex
	redisClients = map[string]*redis.Client{}
)

// NewVersionCache returns the cache selected by the settings, or nil when
// caching is disabled. The memory store and the Redis clients live for the
// whole process; the TTL always comes from the given settings.
func NewVersionCache(settings *entities.Settings) (repositories.VersionCacheRepository, error) {
	switch settings.VersionCache.Backend {
	case entities.CacheNone:
		return nil, nil //nolint:nilnil // no cache configured
	case entities.CacheMemory:
		memoryOnce.Do(func() {
			memoryShared = NewMemoryVersionCache(settings.VersionCache.TTL)
		})
		logger.Debugf("[cache] memory cache holds %d versions", memoryShared.Len())
		return memoryShared.WithTTL(settings.VersionCache.TTL), nil
	case entities.CacheRedis:
		if settings.VersionCache.RedisAddr == "" {
			return nil, errRedisAddrRequired
		}
		return NewRedisVersionCache(redisClient(settings.VersionCache.RedisAddr), settings.VersionCache.TTL), nil
	default:
		return nil, unknownCacheError(settings.VersionCache.Backend)
	}
}

// WithCache wraps a package-index factory so that its result is cached as
// configured.
func WithCache(
	factory func(*entities.Settings) (repositories.PackageIndexRepository, error),
) func(*entities.Settings) (repositories.PackageIndexRepository, error) {
	return func(settings *entities.Settings) (repositories.PackageIndexRepository, error) {
		index, err := factory(settings)
		if err != nil {
			return nil, err
		}
		versionCache, err := NewVersionCache(settings)
		if err != nil {
			return nil, err
		}
		if versionCache == nil {
			return index, nil
		}
		return NewCachedPackageIndexRepository(index, versionCache, settings.PackageIndex.URL), nil
	}
}

func redisClient(addr string) *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()

	if client, ok := redisClients[addr]; ok {
		return client
	}
	//nolint:exhaustruct // defaults are fine for a cache
	client := redis.NewClient(&redis.Options{Addr: addr})
	redisClients[addr] = client
	return client
}
