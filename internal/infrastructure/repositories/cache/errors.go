package cache

import (
	"errors"
	"fmt"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

var errRedisAddrRequired = errors.New("version_cache.redis_addr is required for the redis cache (env REDIS_ADDR)")

func unknownCacheError(name string) error {
	return fmt.Errorf("%w: version cache %q", entities.ErrUnknownBackend, name)
}
