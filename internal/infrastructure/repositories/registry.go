package repositories

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	domainRepos "github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// Factory builds a backend instance for the given settings.
type Factory[T any] func(settings *entities.Settings) (T, error)

// Registry maps backend names (e.g. "codecommit") to their factories.
type Registry[T any] struct {
	kind      string
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry; kind is only used in errors.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a factory under the given name.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	r.factories[name] = factory
}

// Get returns a configured backend instance for the given name.
func (r *Registry[T]) Get(name string, settings *entities.Settings) (T, error) {
	factory, ok := r.factories[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf(
			"%w: %s %q (available: %s)", entities.ErrUnknownBackend, r.kind, name, strings.Join(r.Names(), ", "),
		)
	}
	return factory(settings)
}

// Names returns the registered backend names in lexical order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type (
	SourceControlRegistry     = Registry[domainRepos.SourceControlRepository]
	PackageRepositoryRegistry = Registry[domainRepos.PackageRepository]
	PackageIndexRegistry      = Registry[domainRepos.PackageIndexRepository]
	ObjectStorageRegistry     = Registry[domainRepos.ObjectStorageRepository]
	BuildRegistry             = Registry[domainRepos.BuildRepository]
)

// NewSourceControlRegistry creates an empty source-control registry.
func NewSourceControlRegistry() *SourceControlRegistry {
	return NewRegistry[domainRepos.SourceControlRepository]("source control")
}

// NewPackageRepositoryRegistry creates an empty package-repository registry.
func NewPackageRepositoryRegistry() *PackageRepositoryRegistry {
	return NewRegistry[domainRepos.PackageRepository]("package repository")
}

// NewPackageIndexRegistry creates an empty package-index registry.
func NewPackageIndexRegistry() *PackageIndexRegistry {
	return NewRegistry[domainRepos.PackageIndexRepository]("package index")
}

// NewObjectStorageRegistry creates an empty object-storage registry.
func NewObjectStorageRegistry() *ObjectStorageRegistry {
	return NewRegistry[domainRepos.ObjectStorageRepository]("object storage")
}

// NewBuildRegistry creates an empty build registry.
func NewBuildRegistry() *BuildRegistry {
	return NewRegistry[domainRepos.BuildRepository]("build")
}
