package commands

import (
	"context"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/reqguard/internal/infrastructure/repositories"
)

// Reconcile is the interface for the delta reconciler and publisher.
type Reconcile interface {
	Execute(
		ctx context.Context,
		settings *entities.Settings,
		changeSet entities.ChangeSet,
		opts ReconcileOptions,
	) (entities.ReconcileResult, error)
}

// ReconcileOptions holds runtime options for a single reconciliation.
type ReconcileOptions struct {
	DryRun bool // Compute and log the missing set only
}

// ReconcileCommand computes which requirements are not yet in the package
// repository, uploads them as a requirements file and starts the scan job.
type ReconcileCommand struct {
	packageRegistry *infraRepos.PackageRepositoryRegistry
	indexRegistry   *infraRepos.PackageIndexRegistry
	storageRegistry *infraRepos.ObjectStorageRegistry
	buildRegistry   *infraRepos.BuildRegistry
}

// NewReconcileCommand creates a new ReconcileCommand with the given registries.
func NewReconcileCommand(
	packageRegistry *infraRepos.PackageRepositoryRegistry,
	indexRegistry *infraRepos.PackageIndexRegistry,
	storageRegistry *infraRepos.ObjectStorageRegistry,
	buildRegistry *infraRepos.BuildRegistry,
) *ReconcileCommand {
	return &ReconcileCommand{
		packageRegistry: packageRegistry,
		indexRegistry:   indexRegistry,
		storageRegistry: storageRegistry,
		buildRegistry:   buildRegistry,
	}
}

// Execute runs the full reconcile-and-publish flow for one change set.
func (it *ReconcileCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	changeSet entities.ChangeSet,
	opts ReconcileOptions,
) (entities.ReconcileResult, error) {
	result := entities.ReconcileResult{
		CommitID:        changeSet.CommitID,
		MissingPackages: []string{},
		DryRun:          opts.DryRun,
	}
	logger.Infof("[reconcile] input: %v", changeSet.ChangedPackages)

	if changeSet.IsEmpty() {
		logger.Info("[reconcile] Change set is empty")
		return result, nil
	}

	if err := entities.ValidateCommitID(changeSet.CommitID); err != nil {
		return result, err
	}

	requirements := parseRequirements(changeSet.ChangedPackages)
	if len(requirements) == 0 {
		logger.Info("[reconcile] No requirements to reconcile")
		return result, nil
	}

	index, err := it.indexRegistry.Get(settings.Backends.PackageIndex, settings)
	if err != nil {
		return result, err
	}
	packages, err := it.packageRegistry.Get(settings.Backends.PackageRepository, settings)
	if err != nil {
		return result, err
	}

	resolved, err := resolveVersions(ctx, index, requirements, settings.PackageIndex.Concurrency)
	if err != nil {
		return result, err
	}

	missing, err := findMissing(ctx, packages, settings.Packages, resolved)
	if err != nil {
		return result, err
	}
	result.MissingPackages = entities.RequirementStrings(missing)

	if len(missing) == 0 {
		logger.Info("[reconcile] Nothing has been changed, every requirement is already published")
		return result, nil
	}
	logger.Infof("[reconcile] Missing requirements: %v", result.MissingPackages)

	if opts.DryRun {
		logger.Infof("[reconcile] [DRY RUN] Would upload and scan %d requirements", len(missing))
		return result, nil
	}

	return it.publish(ctx, settings, changeSet.CommitID, missing, result)
}

// publish uploads the missing set and starts the scan job.
func (it *ReconcileCommand) publish(
	ctx context.Context,
	settings *entities.Settings,
	commitID string,
	missing []entities.Requirement,
	result entities.ReconcileResult,
) (entities.ReconcileResult, error) {
	storage, err := it.storageRegistry.Get(settings.Backends.ObjectStorage, settings)
	if err != nil {
		return result, err
	}
	builds, err := it.buildRegistry.Get(settings.Backends.Build, settings)
	if err != nil {
		return result, err
	}

	fileName, err := entities.RequirementsFileName(commitID)
	if err != nil {
		return result, err
	}
	result.ObjectKey = entities.RequirementsObjectKey(settings.ObjectPrefix, fileName)

	location, err := storage.Put(ctx, result.ObjectKey, entities.RenderRequirements(missing))
	if err != nil {
		return result, fmt.Errorf("failed to upload %s: %w", result.ObjectKey, err)
	}
	result.Location = location
	logger.Infof("[reconcile] Uploaded missing requirements to %s", location)

	buildID, err := builds.StartBuild(ctx, entities.BuildRequest{
		ProjectName:   settings.BuildProject,
		SourceVersion: commitID,
		Environment:   map[string]string{entities.RequirementsFileEnvVar: fileName},
	})
	if err != nil {
		return result, fmt.Errorf("failed to start scan build for %s: %w", fileName, err)
	}
	result.BuildID = buildID
	logger.Infof("[reconcile] Started scan build %s for %s", buildID, fileName)

	return result, nil
}

// parseRequirements keeps first-appearance order and one entry per distinct
// pin. A bare name is dropped when the same name is pinned anywhere in the
// list, and collapses into a single entry otherwise.
func parseRequirements(tokens []string) []entities.Requirement {
	requirements := make([]entities.Requirement, 0, len(tokens))
	seen := mapset.NewSet()
	bare := make(map[string]int, len(tokens))
	pinned := mapset.NewSet()

	for _, token := range tokens {
		requirement, ok, err := entities.ParseRequirement(token)
		if err != nil {
			logger.Warnf("[reconcile] Skipping %v", err)
			continue
		}
		if !ok || seen.Contains(requirement.String()) {
			continue
		}
		seen.Add(requirement.String())

		if !requirement.IsPinned() {
			if pinned.Contains(requirement.Name) {
				continue
			}
			bare[requirement.Name] = len(requirements)
			requirements = append(requirements, requirement)
			continue
		}

		pinned.Add(requirement.Name)
		if pos, found := bare[requirement.Name]; found {
			delete(bare, requirement.Name)
			requirements[pos] = requirement
			continue
		}
		requirements = append(requirements, requirement)
	}
	return requirements
}

// resolveVersions asks the index for the latest version of every bare
// name, at most limit lookups at a time. Pinned requirements are kept
// as they are.
func resolveVersions(
	ctx context.Context,
	index repositories.PackageIndexRepository,
	requirements []entities.Requirement,
	limit int,
) ([]entities.Requirement, error) {
	resolved := make([]entities.Requirement, len(requirements))
	copy(resolved, requirements)

	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for i := range resolved {
		if resolved[i].IsPinned() {
			continue
		}
		group.Go(func() error {
			version, err := index.LatestVersion(groupCtx, resolved[i].Name)
			if err != nil {
				return fmt.Errorf("failed to resolve latest version of %s: %w", resolved[i].Name, err)
			}
			logger.Debugf("[reconcile] %s resolved to latest version %s", resolved[i].Name, version)
			resolved[i].Version = version
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// findMissing returns the requirements whose name or version is absent
// from the package repository.
func findMissing(
	ctx context.Context,
	packages repositories.PackageRepository,
	coordinates entities.PackageCoordinates,
	requirements []entities.Requirement,
) ([]entities.Requirement, error) {
	names, err := packages.ListPackages(ctx, coordinates)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	existing := mapset.NewSet()
	for _, name := range names {
		existing.Add(entities.NormalizePackageName(name))
	}

	missing := make([]entities.Requirement, 0)
	published := make(map[string][]string)
	for _, requirement := range requirements {
		if !existing.Contains(requirement.Name) {
			logger.Infof("[reconcile] %s added to missing (new package)", requirement)
			missing = append(missing, requirement)
			continue
		}

		versions, listed := published[requirement.Name]
		if !listed {
			var versionsErr error
			versions, versionsErr = packages.ListPackageVersions(ctx, coordinates, requirement.Name)
			if versionsErr != nil {
				if !errors.Is(versionsErr, entities.ErrPackageNotFound) {
					return nil, fmt.Errorf("failed to list versions of %s: %w", requirement.Name, versionsErr)
				}
				logger.Infof("[reconcile] Package %s does not exist in the repository", requirement.Name)
				versions = []string{}
			}
			published[requirement.Name] = versions
		}

		if containsVersion(versions, requirement.Version) {
			logger.Infof("[reconcile] %s same version already exists", requirement)
			continue
		}
		logger.Infof("[reconcile] %s added to missing (new version)", requirement)
		missing = append(missing, requirement)
	}
	return missing, nil
}

func containsVersion(versions []string, version string) bool {
	for _, v := range versions {
		if v == version {
			return true
		}
	}
	return false
}
