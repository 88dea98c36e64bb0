package repositories

import (
	"context"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// PackageRepository is the private artifact repository packages are
// published to after a clean scan.
type PackageRepository interface {
	// ListPackages returns the names of every package in the repository.
	ListPackages(ctx context.Context, coordinates entities.PackageCoordinates) ([]string, error)

	// ListPackageVersions returns every published version of a package.
	// It returns an error wrapping entities.ErrPackageNotFound when the
	// package does not exist.
	ListPackageVersions(
		ctx context.Context,
		coordinates entities.PackageCoordinates,
		name string,
	) ([]string, error)
}
