//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".reqguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

//nolint:tparallel // some subtests use t.Setenv which is incompatible with t.Parallel on parent
func TestNewSettings(t *testing.T) {
	t.Run("should return the AWS defaults without a file", func(t *testing.T) {
		t.Parallel()

		// when
		settings := entities.DefaultSettings()

		// then
		assert.Equal(t, "main", settings.DefaultBranch)
		assert.Equal(t, "requirements_files/", settings.ObjectPrefix)
		assert.Equal(t, "pypi", settings.Packages.Format)
		assert.Equal(t, "https://pypi.org", settings.PackageIndex.URL)
		assert.Equal(t, entities.CacheNone, settings.VersionCache.Backend)
		assert.Equal(t, entities.BackendsConfig{
			SourceControl:     entities.BackendCodeCommit,
			PackageRepository: entities.BackendCodeArtifact,
			PackageIndex:      entities.BackendPyPI,
			ObjectStorage:     entities.BackendS3,
			Build:             entities.BackendCodeBuild,
		}, settings.Backends)
	})

	t.Run("should read the file and expand environment references", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("TEST_REQGUARD_BUCKET", "from-env-bucket")
		path := writeConfig(t, `
source_repository: app-repo
bucket: ${TEST_REQGUARD_BUCKET}
build_project: scan
package_repository:
  domain: my-domain
  repository: pypi-store
package_index:
  concurrency: 8
  timeout: 3s
version_cache:
  backend: redis
  redis_addr: localhost:6379
  ttl: 1h
backends:
  source_control: git
  object_storage: filesystem
local_repository_path: /src/app
output_dir: /tmp/out
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "app-repo", settings.SourceRepository)
		assert.Equal(t, "from-env-bucket", settings.Bucket)
		assert.Equal(t, "my-domain", settings.Packages.Domain)
		assert.Equal(t, "pypi", settings.Packages.Format)
		assert.Equal(t, 8, settings.PackageIndex.Concurrency)
		assert.Equal(t, 3*time.Second, settings.PackageIndex.Timeout)
		assert.Equal(t, entities.CacheRedis, settings.VersionCache.Backend)
		assert.Equal(t, time.Hour, settings.VersionCache.TTL)
		assert.Equal(t, entities.BackendGit, settings.Backends.SourceControl)
		assert.Equal(t, entities.BackendFilesystem, settings.Backends.ObjectStorage)
		assert.Equal(t, entities.BackendCodeArtifact, settings.Backends.PackageRepository)
		assert.Equal(t, "/src/app", settings.LocalRepositoryPath)
	})

	t.Run("should let the deployment environment override the file", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("DOMAIN", "env-domain")
		t.Setenv("DOMAIN_OWNER", "210987654321")
		t.Setenv("REPOSITORY", "env-repo")
		t.Setenv("CODEBUILD_PROJECT_NAME", "env-scan")
		t.Setenv("BUCKET", "env-bucket")
		t.Setenv("INDEX_CONCURRENCY", "2")
		t.Setenv("VERSION_CACHE_TTL", "30s")
		path := writeConfig(t, "package_repository:\n  domain: file-domain\nbucket: file-bucket\n")

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "env-domain", settings.Packages.Domain)
		assert.Equal(t, "210987654321", settings.Packages.DomainOwner)
		assert.Equal(t, "env-repo", settings.Packages.Repository)
		assert.Equal(t, "env-scan", settings.BuildProject)
		assert.Equal(t, "env-bucket", settings.Bucket)
		assert.Equal(t, 2, settings.PackageIndex.Concurrency)
		assert.Equal(t, 30*time.Second, settings.VersionCache.TTL)
	})

	t.Run("should reject malformed numeric overrides", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("INDEX_CONCURRENCY", "many")

		// when
		_, err := entities.NewSettings("")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INDEX_CONCURRENCY")
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.NewSettings(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.Error(t, err)
	})

	t.Run("should fail for invalid YAML", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "backends: [unclosed\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
	})
}

func TestSettingsValidation(t *testing.T) {
	t.Parallel()

	t.Run("should require CodeArtifact coordinates even on dry runs", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()

		// when
		err := settings.ValidateForPublish(true)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DOMAIN")
	})

	t.Run("should only need coordinates for a dry run", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.Packages.Domain = "d"
		settings.Packages.Repository = "r"

		// when
		err := settings.ValidateForPublish(true)

		// then
		require.NoError(t, err)
	})

	t.Run("should require a bucket and a build project to publish", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.Packages.Domain = "d"
		settings.Packages.Repository = "r"

		// when
		bucketErr := settings.ValidateForPublish(false)
		settings.Bucket = "b"
		projectErr := settings.ValidateForPublish(false)
		settings.BuildProject = "p"
		okErr := settings.ValidateForPublish(false)

		// then
		require.Error(t, bucketErr)
		assert.Contains(t, bucketErr.Error(), "BUCKET")
		require.Error(t, projectErr)
		assert.Contains(t, projectErr.Error(), "CODEBUILD_PROJECT_NAME")
		require.NoError(t, okErr)
	})

	t.Run("should require a clone path for the git backend", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.Backends.SourceControl = entities.BackendGit

		// when
		err := settings.ValidateForDetection()

		// then
		require.Error(t, err)
	})
}
