package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/infrastructure/repositories/cache"
	caRepo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/codeartifact"
	cbRepo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/codebuild"
	ccRepo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/codecommit"
	fsRepo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/filesystem"
	gitRepo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/localgit"
	pypiRepo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/pypi"
	s3Repo "github.com/rios0rios0/reqguard/internal/infrastructure/repositories/s3"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewAWSConfigLoader); err != nil {
		return err
	}

	if err := container.Provide(func(loadConfig AWSConfigLoader) *SourceControlRegistry {
		reg := NewSourceControlRegistry()
		reg.Register(entities.BackendCodeCommit, ccRepo.NewFactory(loadConfig))
		reg.Register(entities.BackendGit, gitRepo.NewSourceControlRepositoryFromSettings)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func(loadConfig AWSConfigLoader) *PackageRepositoryRegistry {
		reg := NewPackageRepositoryRegistry()
		reg.Register(entities.BackendCodeArtifact, caRepo.NewFactory(loadConfig))
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func() *PackageIndexRegistry {
		reg := NewPackageIndexRegistry()
		reg.Register(entities.BackendPyPI, cache.WithCache(pypiRepo.NewPackageIndexRepositoryFromSettings))
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func(loadConfig AWSConfigLoader) *ObjectStorageRegistry {
		reg := NewObjectStorageRegistry()
		reg.Register(entities.BackendS3, s3Repo.NewFactory(loadConfig))
		reg.Register(entities.BackendFilesystem, fsRepo.NewObjectStorageRepositoryFromSettings)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func(loadConfig AWSConfigLoader) *BuildRegistry {
		reg := NewBuildRegistry()
		reg.Register(entities.BackendCodeBuild, cbRepo.NewFactory(loadConfig))
		return reg
	}); err != nil {
		return err
	}

	return nil
}
