package codeartifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscodeartifact "github.com/aws/aws-sdk-go-v2/service/codeartifact"
	"github.com/aws/aws-sdk-go-v2/service/codeartifact/types"
	"github.com/aws/smithy-go"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

const notFoundCode = "ResourceNotFoundException"

// API is the subset of the CodeArtifact client used here.
type API interface {
	ListPackages(
		ctx context.Context, params *awscodeartifact.ListPackagesInput, optFns ...func(*awscodeartifact.Options),
	) (*awscodeartifact.ListPackagesOutput, error)
	ListPackageVersions(
		ctx context.Context, params *awscodeartifact.ListPackageVersionsInput, optFns ...func(*awscodeartifact.Options),
	) (*awscodeartifact.ListPackageVersionsOutput, error)
}

// PackageRepository lists packages and versions of a CodeArtifact repository.
type PackageRepository struct {
	client API
}

// NewPackageRepository wraps a CodeArtifact client.
func NewPackageRepository(client API) *PackageRepository {
	return &PackageRepository{client: client}
}

// NewFactory returns a registry factory that builds the client from the
// shared AWS configuration.
func NewFactory(
	loadConfig func() (aws.Config, error),
) func(*entities.Settings) (repositories.PackageRepository, error) {
	return func(_ *entities.Settings) (repositories.PackageRepository, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return NewPackageRepository(awscodeartifact.NewFromConfig(cfg)), nil
	}
}

// ListPackages reads every page of the package listing.
func (it *PackageRepository) ListPackages(
	ctx context.Context,
	coordinates entities.PackageCoordinates,
) ([]string, error) {
	//nolint:exhaustruct // filters are not used
	input := &awscodeartifact.ListPackagesInput{
		Domain:      aws.String(coordinates.Domain),
		Repository:  aws.String(coordinates.Repository),
		DomainOwner: optional(coordinates.DomainOwner),
		Format:      types.PackageFormat(coordinates.Format),
	}

	var names []string
	for {
		output, err := it.client.ListPackages(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, summary := range output.Packages {
			names = append(names, aws.ToString(summary.Package))
		}

		if aws.ToString(output.NextToken) == "" {
			break
		}
		input.NextToken = output.NextToken
	}

	logger.Debugf("[codeartifact] %d packages in %s/%s", len(names), coordinates.Domain, coordinates.Repository)
	return names, nil
}

// ListPackageVersions reads every page of the version listing. Unknown
// packages are reported as entities.ErrPackageNotFound.
func (it *PackageRepository) ListPackageVersions(
	ctx context.Context,
	coordinates entities.PackageCoordinates,
	name string,
) ([]string, error) {
	//nolint:exhaustruct // filters are not used
	input := &awscodeartifact.ListPackageVersionsInput{
		Domain:      aws.String(coordinates.Domain),
		Repository:  aws.String(coordinates.Repository),
		DomainOwner: optional(coordinates.DomainOwner),
		Format:      types.PackageFormat(coordinates.Format),
		Package:     aws.String(name),
	}

	var versions []string
	for {
		output, err := it.client.ListPackageVersions(ctx, input)
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: %s", entities.ErrPackageNotFound, name)
			}
			return nil, err
		}
		for _, summary := range output.Versions {
			versions = append(versions, aws.ToString(summary.Version))
		}

		if aws.ToString(output.NextToken) == "" {
			break
		}
		input.NextToken = output.NextToken
	}
	return versions, nil
}

func isNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == notFoundCode
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return aws.String(value)
}
