package repositories

import "context"

// PackageIndexRepository resolves the latest published version of a
// package on the public index.
type PackageIndexRepository interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// VersionCacheRepository stores resolved latest versions for a short time.
type VersionCacheRepository interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, version string) error
}
