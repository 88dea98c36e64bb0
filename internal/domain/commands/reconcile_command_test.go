//go:build unit

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/reqguard/internal/domain/commands"
	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/reqguard/internal/infrastructure/repositories"
	"github.com/rios0rios0/reqguard/internal/infrastructure/repositories/cache"
	"github.com/rios0rios0/reqguard/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/reqguard/test/infrastructure/repositorydoubles"
)

type reconcileFixture struct {
	packages *doubles.SpyPackageRepository
	index    *doubles.StubPackageIndexRepository
	storage  *doubles.SpyObjectStorageRepository
	builds   *doubles.SpyBuildRepository
	command  *commands.ReconcileCommand
}

func newReconcileFixture(
	packages *doubles.SpyPackageRepository,
	index *doubles.StubPackageIndexRepository,
) *reconcileFixture {
	f := &reconcileFixture{
		packages: packages,
		index:    index,
		storage:  &doubles.SpyObjectStorageRepository{},
		builds:   &doubles.SpyBuildRepository{BuildID: "scan-project:42"},
	}
	return f.wire(func(*entities.Settings) (repositories.PackageIndexRepository, error) {
		return f.index, nil
	})
}

// withCachedIndex wraps the index the way the pypi backend is registered.
func (f *reconcileFixture) withCachedIndex() *reconcileFixture {
	return f.wire(cache.WithCache(func(*entities.Settings) (repositories.PackageIndexRepository, error) {
		return f.index, nil
	}))
}

func (f *reconcileFixture) wire(indexFactory infraRepos.Factory[repositories.PackageIndexRepository]) *reconcileFixture {
	packageRegistry := infraRepos.NewPackageRepositoryRegistry()
	packageRegistry.Register(entitybuilders.SpyBackend, func(*entities.Settings) (repositories.PackageRepository, error) {
		return f.packages, nil
	})
	indexRegistry := infraRepos.NewPackageIndexRegistry()
	indexRegistry.Register(entitybuilders.SpyBackend, indexFactory)
	storageRegistry := infraRepos.NewObjectStorageRegistry()
	storageRegistry.Register(entitybuilders.SpyBackend, func(*entities.Settings) (repositories.ObjectStorageRepository, error) {
		return f.storage, nil
	})
	buildRegistry := infraRepos.NewBuildRegistry()
	buildRegistry.Register(entitybuilders.SpyBackend, func(*entities.Settings) (repositories.BuildRepository, error) {
		return f.builds, nil
	})

	f.command = commands.NewReconcileCommand(packageRegistry, indexRegistry, storageRegistry, buildRegistry)
	return f
}

func TestReconcileCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should publish only the bare name missing from the repository", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"requests"},
				Versions: map[string][]string{"requests": {"2.25.1"}},
			},
			&doubles.StubPackageIndexRepository{Versions: map[string]string{"flask": "2.0.1"}},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("requests==2.25.1", "flask").
			WithCommitID("abc123").
			BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"flask==2.0.1"}, result.MissingPackages)
		assert.Equal(t, "requirements_files/requirements-abc123.txt", result.ObjectKey)
		assert.Equal(t, "flask==2.0.1\n", string(f.storage.Objects[result.ObjectKey]))
		require.Len(t, f.builds.Requests, 1)
		assert.Equal(t, entities.BuildRequest{
			ProjectName:   "scan-project",
			SourceVersion: "abc123",
			Environment:   map[string]string{"REQ_FILENAME": "requirements-abc123.txt"},
		}, f.builds.Requests[0])
		assert.Equal(t, "scan-project:42", result.BuildID)
		assert.True(t, result.Published())
		assert.Equal(t, 0, f.index.Calls("requests"))
	})

	t.Run("should neither upload nor build when everything is already published", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"requests"},
				Versions: map[string][]string{"requests": {"2.25.1"}},
			},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("requests==2.25.1").BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, result.MissingPackages)
		assert.False(t, result.Published())
		assert.Empty(t, f.storage.PutKeys)
		assert.Empty(t, f.builds.Requests)
	})

	t.Run("should never query the index for pinned requirements", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("Django==4.2.7", "numpy==1.26.2", "requests===2.31.0").
			BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, f.index.TotalCalls())
		assert.Equal(t, []string{"django==4.2.7", "numpy==1.26.2", "requests==2.31.0"}, result.MissingPackages)
	})

	t.Run("should resolve each bare name exactly once", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{},
			&doubles.StubPackageIndexRepository{Versions: map[string]string{
				"flask": "3.0.0", "six": "1.16.0", "boto3": "1.28.0",
			}},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("flask", "six", "Flask", "boto3[crt]", "six>=1.0").
			BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, f.index.Calls("flask"))
		assert.Equal(t, 1, f.index.Calls("six"))
		assert.Equal(t, 1, f.index.Calls("boto3"))
		assert.Equal(t, []string{"flask==3.0.0", "six==1.16.0", "boto3==1.28.0"}, result.MissingPackages)
	})

	t.Run("should keep every distinct pin of the same package", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"requests"},
				Versions: map[string][]string{"requests": {"2.31.0"}},
			},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("requests==2.25.1", "requests==2.31.0", "Requests==2.25.1").
			WithCommitID("abc123").
			BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"requests==2.25.1"}, result.MissingPackages)
		assert.Equal(t, "requests==2.25.1\n", string(f.storage.Objects[result.ObjectKey]))
		assert.Equal(t, []string{"requests"}, f.packages.VersionCalls)
	})

	t.Run("should publish both pins when two files pin one package differently", func(t *testing.T) {
		t.Parallel()

		// given
		detect := newDetectCommand(&doubles.SpySourceControlRepository{
			Differences: []entities.Difference{
				modified("requirements.txt", "b1", "a1"),
				modified("requirements-dev.txt", "b2", "a2"),
			},
			Blobs: map[string]string{"b1": "", "a1": "requests==2.25.1\n", "b2": "", "a2": "requests==2.31.0\n"},
		})
		f := newReconcileFixture(&doubles.SpyPackageRepository{}, &doubles.StubPackageIndexRepository{})
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet, err := detect.Execute(context.Background(), settings, entities.CommitEvent{CommitID: "c1"})
		require.NoError(t, err)

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"requests==2.25.1", "requests==2.31.0"}, result.MissingPackages)
		assert.Equal(t, "requests==2.25.1\nrequests==2.31.0\n", string(f.storage.Objects[result.ObjectKey]))
	})

	t.Run("should drop a bare name when the same package is pinned", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{},
			&doubles.StubPackageIndexRepository{Versions: map[string]string{"flask": "3.0.0", "six": "1.16.0"}},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("flask", "six==1.15.0", "flask==2.0.1", "six").
			BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"flask==2.0.1", "six==1.15.0"}, result.MissingPackages)
		assert.Equal(t, 0, f.index.TotalCalls())
	})

	t.Run("should ask the index again on every run with the default settings", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{},
			&doubles.StubPackageIndexRepository{Versions: map[string]string{"flask": "2.0.1"}},
		).withCachedIndex()
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("flask").BuildChangeSet()
		options := commands.ReconcileOptions{DryRun: true}

		// when
		first, err := f.command.Execute(context.Background(), settings, changeSet, options)
		require.NoError(t, err)
		f.index.Versions = map[string]string{"flask": "2.0.2"}
		second, err := f.command.Execute(context.Background(), settings, changeSet, options)
		require.NoError(t, err)

		// then
		assert.Equal(t, []string{"flask==2.0.1"}, first.MissingPackages)
		assert.Equal(t, []string{"flask==2.0.2"}, second.MissingPackages)
		assert.Equal(t, 2, f.index.Calls("flask"))
	})

	t.Run("should bound concurrent index lookups", func(t *testing.T) {
		t.Parallel()

		// given
		versions := map[string]string{}
		tokens := make([]string, 0, 12)
		for i := range 12 {
			name := fmt.Sprintf("pkg-%d", i)
			versions[name] = "1.0.0"
			tokens = append(tokens, name)
		}
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{},
			&doubles.StubPackageIndexRepository{Versions: versions, Delay: 10 * time.Millisecond},
		)
		settings := entitybuilders.NewSettingsBuilder().WithConcurrency(3).BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages(tokens...).BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Len(t, result.MissingPackages, 12)
		assert.Equal(t, "pkg-0==1.0.0", result.MissingPackages[0])
		assert.LessOrEqual(t, f.index.MaxInFlight(), 3)
	})

	t.Run("should produce the same missing set when run twice", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"flask", "requests"},
				Versions: map[string][]string{"flask": {"1.1.0"}, "requests": {"2.25.1"}},
			},
			&doubles.StubPackageIndexRepository{Versions: map[string]string{"flask": "2.0.1"}},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("flask", "requests==2.25.1", "pandas==2.1.0").
			BuildChangeSet()

		// when
		first, firstErr := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{DryRun: true})
		second, secondErr := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{DryRun: true})

		// then
		require.NoError(t, firstErr)
		require.NoError(t, secondErr)
		assert.Equal(t, []string{"flask==2.0.1", "pandas==2.1.0"}, first.MissingPackages)
		assert.Equal(t, first.MissingPackages, second.MissingPackages)
	})

	t.Run("should always report packages absent from the repository", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"requests"},
				Versions: map[string][]string{"requests": {"2.25.1"}},
			},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()

		for _, version := range []string{"0.0.1", "1.0.0", "99.9.9"} {
			changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("brand-new==" + version).BuildChangeSet()

			// when
			result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{DryRun: true})

			// then
			require.NoError(t, err)
			assert.Equal(t, []string{"brand-new==" + version}, result.MissingPackages)
		}
		assert.NotContains(t, f.packages.VersionCalls, "brand-new")
	})

	t.Run("should treat a package missing at version lookup as having no versions", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"flask"},
				Versions: map[string][]string{},
			},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("flask==2.0.1").BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"flask==2.0.1"}, result.MissingPackages)
		assert.Equal(t, []string{"flask"}, f.packages.VersionCalls)
	})

	t.Run("should match repository names after normalization", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages: []string{"Zope.Interface"},
				Versions: map[string][]string{"zope-interface": {"6.0"}},
			},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("zope_interface==6.0").BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, result.MissingPackages)
	})

	t.Run("should only compute the missing set on a dry run", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(&doubles.SpyPackageRepository{}, &doubles.StubPackageIndexRepository{})
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("six==1.16.0").BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, []string{"six==1.16.0"}, result.MissingPackages)
		assert.Empty(t, f.storage.PutKeys)
		assert.Empty(t, f.builds.Requests)
	})

	t.Run("should skip comments options and invalid tokens", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(&doubles.SpyPackageRepository{}, &doubles.StubPackageIndexRepository{})
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("#", "pinned", "-r", "base.txt", "--hash=sha256:abc", "==1.0", "six==1.16.0").
			BuildChangeSet()
		f.index.Versions = map[string]string{"pinned": "0.1", "base-txt": "1.0"}

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pinned==0.1", "base-txt==1.0", "six==1.16.0"}, result.MissingPackages)
	})

	t.Run("should do nothing for an empty change set", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(&doubles.SpyPackageRepository{}, &doubles.StubPackageIndexRepository{})
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().BuildChangeSet()

		// when
		result, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, result.MissingPackages)
		assert.Equal(t, 0, f.packages.ListPackageCalls)
	})

	t.Run("should abort when the index lookup fails", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{},
			&doubles.StubPackageIndexRepository{Errs: map[string]error{"flask": errors.New("index down")}},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("flask").BuildChangeSet()

		// when
		_, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index down")
		assert.Equal(t, 0, f.packages.ListPackageCalls)
	})

	t.Run("should abort on repository errors other than not found", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(
			&doubles.SpyPackageRepository{
				Packages:    []string{"flask"},
				VersionsErr: errors.New("access denied"),
			},
			&doubles.StubPackageIndexRepository{},
		)
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("flask==2.0.1").BuildChangeSet()

		// when
		_, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.Error(t, err)
		assert.Empty(t, f.storage.PutKeys)
	})

	t.Run("should reject a commit id that leaves the object prefix", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(&doubles.SpyPackageRepository{}, &doubles.StubPackageIndexRepository{})
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().
			WithPackages("six==1.16.0").
			WithCommitID("../outside").
			BuildChangeSet()

		// when
		_, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.ErrorIs(t, err, entities.ErrInvalidCommitID)
		assert.Equal(t, 0, f.packages.ListPackageCalls)
		assert.Empty(t, f.storage.PutKeys)
		assert.Empty(t, f.builds.Requests)
	})

	t.Run("should not start a build when the upload fails", func(t *testing.T) {
		t.Parallel()

		// given
		f := newReconcileFixture(&doubles.SpyPackageRepository{}, &doubles.StubPackageIndexRepository{})
		f.storage.PutErr = errors.New("bucket missing")
		settings := entitybuilders.NewSettingsBuilder().BuildSettings()
		changeSet := entitybuilders.NewChangeSetBuilder().WithPackages("six==1.16.0").BuildChangeSet()

		// when
		_, err := f.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{})

		// then
		require.Error(t, err)
		assert.Empty(t, f.builds.Requests)
	})
}
