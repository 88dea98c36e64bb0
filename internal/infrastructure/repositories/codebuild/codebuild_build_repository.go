package codebuild

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscodebuild "github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// API is the subset of the CodeBuild client used here.
type API interface {
	StartBuild(
		ctx context.Context, params *awscodebuild.StartBuildInput, optFns ...func(*awscodebuild.Options),
	) (*awscodebuild.StartBuildOutput, error)
}

// BuildRepository starts the scan project on CodeBuild.
type BuildRepository struct {
	client API
}

// NewBuildRepository wraps a CodeBuild client.
func NewBuildRepository(client API) *BuildRepository {
	return &BuildRepository{client: client}
}

// NewFactory returns a registry factory that builds the client from the
// shared AWS configuration.
func NewFactory(
	loadConfig func() (aws.Config, error),
) func(*entities.Settings) (repositories.BuildRepository, error) {
	return func(_ *entities.Settings) (repositories.BuildRepository, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return NewBuildRepository(awscodebuild.NewFromConfig(cfg)), nil
	}
}

// StartBuild passes the environment as plain-text overrides.
func (it *BuildRepository) StartBuild(ctx context.Context, request entities.BuildRequest) (string, error) {
	names := make([]string, 0, len(request.Environment))
	for name := range request.Environment {
		names = append(names, name)
	}
	sort.Strings(names)

	overrides := make([]types.EnvironmentVariable, 0, len(names))
	for _, name := range names {
		overrides = append(overrides, types.EnvironmentVariable{
			Name:  aws.String(name),
			Value: aws.String(request.Environment[name]),
			Type:  types.EnvironmentVariableTypePlaintext,
		})
	}

	//nolint:exhaustruct // only the overrides this job needs
	input := &awscodebuild.StartBuildInput{
		ProjectName:                  aws.String(request.ProjectName),
		EnvironmentVariablesOverride: overrides,
	}
	if request.SourceVersion != "" {
		input.SourceVersion = aws.String(request.SourceVersion)
	}

	output, err := it.client.StartBuild(ctx, input)
	if err != nil {
		return "", err
	}
	if output.Build == nil {
		return "", nil
	}
	return aws.ToString(output.Build.Id), nil
}
