//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// SpyPackageRepository implements repositories.PackageRepository. Names
// absent from Versions answer with entities.ErrPackageNotFound.
type SpyPackageRepository struct {
	// --- ListPackages ---
	Packages         []string
	ListPackagesErr  error
	ListPackageCalls int
	LastCoordinates  entities.PackageCoordinates

	// --- ListPackageVersions ---
	Versions     map[string][]string // name -> versions
	VersionsErr  error
	VersionCalls []string
}

var _ repositories.PackageRepository = (*SpyPackageRepository)(nil)

func (s *SpyPackageRepository) ListPackages(
	_ context.Context, coordinates entities.PackageCoordinates,
) ([]string, error) {
	s.ListPackageCalls++
	s.LastCoordinates = coordinates
	return s.Packages, s.ListPackagesErr
}

func (s *SpyPackageRepository) ListPackageVersions(
	_ context.Context, _ entities.PackageCoordinates, name string,
) ([]string, error) {
	s.VersionCalls = append(s.VersionCalls, name)
	if s.VersionsErr != nil {
		return nil, s.VersionsErr
	}
	versions, ok := s.Versions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrPackageNotFound, name)
	}
	return versions, nil
}
