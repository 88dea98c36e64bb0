//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/reqguard/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// SpyBackend is the backend name the command tests register their doubles under.
const SpyBackend = "spy"

// SettingsBuilder helps create settings wired to the test doubles.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	repository  string
	branch      string
	concurrency int
	bucket      string
	project     string
}

// NewSettingsBuilder creates a new settings builder with sensible defaults.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		repository:  "app-repo",
		branch:      "main",
		concurrency: 4,
		bucket:      "scan-bucket",
		project:     "scan-project",
	}
}

// WithRepository sets the default source repository.
func (b *SettingsBuilder) WithRepository(repository string) *SettingsBuilder {
	b.repository = repository
	return b
}

// WithDefaultBranch sets the branch used when an event names none.
func (b *SettingsBuilder) WithDefaultBranch(branch string) *SettingsBuilder {
	b.branch = branch
	return b
}

// WithConcurrency sets the index lookup limit.
func (b *SettingsBuilder) WithConcurrency(concurrency int) *SettingsBuilder {
	b.concurrency = concurrency
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	settings := entities.DefaultSettings()
	settings.SourceRepository = b.repository
	settings.DefaultBranch = b.branch
	settings.PackageIndex.Concurrency = b.concurrency
	settings.Bucket = b.bucket
	settings.BuildProject = b.project
	settings.Packages = entities.PackageCoordinates{
		Domain:      "my-domain",
		DomainOwner: "123456789012",
		Repository:  "pypi-store",
		Format:      entities.DefaultPackageFormat,
	}
	settings.Backends = entities.BackendsConfig{
		SourceControl:     SpyBackend,
		PackageRepository: SpyBackend,
		PackageIndex:      SpyBackend,
		ObjectStorage:     SpyBackend,
		Build:             SpyBackend,
	}
	return settings
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.repository = "app-repo"
	b.branch = "main"
	b.concurrency = 4
	b.bucket = "scan-bucket"
	b.project = "scan-project"
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	return &SettingsBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		repository:  b.repository,
		branch:      b.branch,
		concurrency: b.concurrency,
		bucket:      b.bucket,
		project:     b.project,
	}
}
