package repositories

import (
	"context"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// SourceControlRepository abstracts the revision-control system the commit
// events come from (CodeCommit in the cloud, a local clone on the CLI).
type SourceControlRepository interface {
	// Name returns the backend identifier (e.g. "codecommit", "git").
	Name() string

	// GetBranchTip returns the commit id the branch currently points at.
	GetBranchTip(ctx context.Context, repository, branch string) (string, error)

	// GetCommit returns the commit metadata including its parents.
	GetCommit(ctx context.Context, repository, commitID string) (entities.Commit, error)

	// GetDifferences returns every changed file between the two commits,
	// aggregating all result pages. An empty beforeCommitID compares against
	// the empty tree.
	GetDifferences(
		ctx context.Context,
		repository, beforeCommitID, afterCommitID string,
	) ([]entities.Difference, error)

	// GetBlob returns the raw contents of a blob.
	GetBlob(ctx context.Context, repository, blobID string) ([]byte, error)
}
