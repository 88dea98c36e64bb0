package localgit

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

const (
	backendName  = "git"
	remoteOrigin = "origin"
)

// SourceControlRepository reads commits from a local clone. The repository
// name arguments are ignored since the clone is fixed at construction.
type SourceControlRepository struct {
	repo *git.Repository
}

// NewSourceControlRepository wraps an opened go-git repository.
func NewSourceControlRepository(repo *git.Repository) *SourceControlRepository {
	return &SourceControlRepository{repo: repo}
}

// NewSourceControlRepositoryFromSettings opens the clone at
// settings.LocalRepositoryPath (or any parent of it).
func NewSourceControlRepositoryFromSettings(
	settings *entities.Settings,
) (repositories.SourceControlRepository, error) {
	path := settings.LocalRepositoryPath
	if path == "" {
		path = "."
	}

	//nolint:exhaustruct // only parent discovery is needed
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %q: %w", path, err)
	}
	return NewSourceControlRepository(repo), nil
}

func (it *SourceControlRepository) Name() string { return backendName }

// GetBranchTip prefers the local branch and falls back to origin's.
func (it *SourceControlRepository) GetBranchTip(_ context.Context, _, branch string) (string, error) {
	ref, err := it.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err == nil {
		return ref.Hash().String(), nil
	}

	remoteRef, remoteErr := it.repo.Reference(plumbing.NewRemoteReferenceName(remoteOrigin, branch), true)
	if remoteErr != nil {
		return "", fmt.Errorf("branch %q not found: %w", branch, err)
	}
	return remoteRef.Hash().String(), nil
}

// GetCommit accepts anything go-git can resolve (hashes, "HEAD", tags).
func (it *SourceControlRepository) GetCommit(
	_ context.Context,
	_, commitID string,
) (entities.Commit, error) {
	commit, err := it.commitObject(commitID)
	if err != nil {
		return entities.Commit{}, err
	}

	parents := make([]string, 0, len(commit.ParentHashes))
	for _, parent := range commit.ParentHashes {
		parents = append(parents, parent.String())
	}

	return entities.Commit{
		ID:      commit.Hash.String(),
		Parents: parents,
		Message: commit.Message,
	}, nil
}

// GetDifferences diffs the trees of both commits; an empty before id
// diffs against the empty tree.
func (it *SourceControlRepository) GetDifferences(
	_ context.Context,
	_, beforeCommitID, afterCommitID string,
) ([]entities.Difference, error) {
	afterTree, err := it.tree(afterCommitID)
	if err != nil {
		return nil, err
	}

	var beforeTree *object.Tree
	if beforeCommitID != "" {
		beforeTree, err = it.tree(beforeCommitID)
		if err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTree(beforeTree, afterTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	differences := make([]entities.Difference, 0, len(changes))
	for _, change := range changes {
		differences = append(differences, entities.Difference{
			Before: toBlobRef(change.From),
			After:  toBlobRef(change.To),
		})
	}

	logger.Debugf("[git] %d differences between %q and %q", len(differences), beforeCommitID, afterCommitID)
	return differences, nil
}

func (it *SourceControlRepository) GetBlob(_ context.Context, _, blobID string) ([]byte, error) {
	blob, err := it.repo.BlobObject(plumbing.NewHash(blobID))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", blobID, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", blobID, err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (it *SourceControlRepository) commitObject(revision string) (*object.Commit, error) {
	hash, err := it.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", revision, err)
	}

	commit, err := it.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	return commit, nil
}

func (it *SourceControlRepository) tree(revision string) (*object.Tree, error) {
	commit, err := it.commitObject(revision)
	if err != nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", commit.Hash, err)
	}
	return tree, nil
}

func toBlobRef(entry object.ChangeEntry) *entities.BlobRef {
	if entry.Name == "" {
		return nil
	}
	return &entities.BlobRef{
		ID:   entry.TreeEntry.Hash.String(),
		Path: entry.Name,
	}
}
