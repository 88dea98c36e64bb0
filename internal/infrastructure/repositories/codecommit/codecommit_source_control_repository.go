package codecommit

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscodecommit "github.com/aws/aws-sdk-go-v2/service/codecommit"
	"github.com/aws/aws-sdk-go-v2/service/codecommit/types"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

const backendName = "codecommit"

// API is the subset of the CodeCommit client used here.
type API interface {
	GetBranch(
		ctx context.Context, params *awscodecommit.GetBranchInput, optFns ...func(*awscodecommit.Options),
	) (*awscodecommit.GetBranchOutput, error)
	GetCommit(
		ctx context.Context, params *awscodecommit.GetCommitInput, optFns ...func(*awscodecommit.Options),
	) (*awscodecommit.GetCommitOutput, error)
	GetDifferences(
		ctx context.Context, params *awscodecommit.GetDifferencesInput, optFns ...func(*awscodecommit.Options),
	) (*awscodecommit.GetDifferencesOutput, error)
	GetBlob(
		ctx context.Context, params *awscodecommit.GetBlobInput, optFns ...func(*awscodecommit.Options),
	) (*awscodecommit.GetBlobOutput, error)
}

// SourceControlRepository reads commits and blobs from AWS CodeCommit.
type SourceControlRepository struct {
	client API
}

// NewSourceControlRepository wraps a CodeCommit client.
func NewSourceControlRepository(client API) *SourceControlRepository {
	return &SourceControlRepository{client: client}
}

// NewFactory returns a registry factory that builds the client from the
// shared AWS configuration.
func NewFactory(
	loadConfig func() (aws.Config, error),
) func(*entities.Settings) (repositories.SourceControlRepository, error) {
	return func(_ *entities.Settings) (repositories.SourceControlRepository, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return NewSourceControlRepository(awscodecommit.NewFromConfig(cfg)), nil
	}
}

func (it *SourceControlRepository) Name() string { return backendName }

func (it *SourceControlRepository) GetBranchTip(ctx context.Context, repository, branch string) (string, error) {
	output, err := it.client.GetBranch(ctx, &awscodecommit.GetBranchInput{
		RepositoryName: aws.String(repository),
		BranchName:     aws.String(branch),
	})
	if err != nil {
		return "", err
	}
	if output.Branch == nil || aws.ToString(output.Branch.CommitId) == "" {
		return "", fmt.Errorf("branch %q of %s has no commit", branch, repository)
	}
	return aws.ToString(output.Branch.CommitId), nil
}

func (it *SourceControlRepository) GetCommit(
	ctx context.Context,
	repository, commitID string,
) (entities.Commit, error) {
	output, err := it.client.GetCommit(ctx, &awscodecommit.GetCommitInput{
		RepositoryName: aws.String(repository),
		CommitId:       aws.String(commitID),
	})
	if err != nil {
		return entities.Commit{}, err
	}
	if output.Commit == nil {
		return entities.Commit{ID: commitID}, nil
	}

	return entities.Commit{
		ID:      aws.ToString(output.Commit.CommitId),
		Parents: output.Commit.Parents,
		Message: aws.ToString(output.Commit.Message),
	}, nil
}

// GetDifferences follows NextToken until every page has been read.
func (it *SourceControlRepository) GetDifferences(
	ctx context.Context,
	repository, beforeCommitID, afterCommitID string,
) ([]entities.Difference, error) {
	//nolint:exhaustruct // paths and page size are left to the service
	input := &awscodecommit.GetDifferencesInput{
		RepositoryName:       aws.String(repository),
		AfterCommitSpecifier: aws.String(afterCommitID),
	}
	if beforeCommitID != "" {
		input.BeforeCommitSpecifier = aws.String(beforeCommitID)
	}

	var differences []entities.Difference
	pages := 0
	for {
		output, err := it.client.GetDifferences(ctx, input)
		if err != nil {
			return nil, err
		}
		pages++

		for _, diff := range output.Differences {
			differences = append(differences, entities.Difference{
				Before: toBlobRef(diff.BeforeBlob),
				After:  toBlobRef(diff.AfterBlob),
			})
		}

		if aws.ToString(output.NextToken) == "" {
			break
		}
		input.NextToken = output.NextToken
	}

	logger.Debugf("[codecommit] %d differences in %d pages for %s", len(differences), pages, afterCommitID)
	return differences, nil
}

func (it *SourceControlRepository) GetBlob(ctx context.Context, repository, blobID string) ([]byte, error) {
	output, err := it.client.GetBlob(ctx, &awscodecommit.GetBlobInput{
		RepositoryName: aws.String(repository),
		BlobId:         aws.String(blobID),
	})
	if err != nil {
		return nil, err
	}
	return output.Content, nil
}

func toBlobRef(blob *types.BlobMetadata) *entities.BlobRef {
	if blob == nil || aws.ToString(blob.BlobId) == "" {
		return nil
	}
	return &entities.BlobRef{
		ID:   aws.ToString(blob.BlobId),
		Path: aws.ToString(blob.Path),
	}
}
