//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// SpySourceControlRepository implements repositories.SourceControlRepository
// over in-memory commits, differences and blobs.
type SpySourceControlRepository struct {
	// --- identity ---
	BackendName string

	// --- GetBranchTip ---
	BranchTips     map[string]string // branch -> commit id
	BranchTipErr   error
	BranchTipCalls []string

	// --- GetCommit ---
	Commits     map[string]entities.Commit // commit id -> commit
	CommitErr   error
	CommitCalls []string

	// --- GetDifferences ---
	Differences     []entities.Difference
	DifferencesErr  error
	DifferenceCalls [][2]string // (before, after)

	// --- GetBlob ---
	Blobs     map[string]string // blob id -> content
	BlobErr   error
	BlobCalls []string
}

var _ repositories.SourceControlRepository = (*SpySourceControlRepository)(nil)

func (s *SpySourceControlRepository) Name() string {
	if s.BackendName == "" {
		return entities.BackendCodeCommit
	}
	return s.BackendName
}

func (s *SpySourceControlRepository) GetBranchTip(_ context.Context, _, branch string) (string, error) {
	s.BranchTipCalls = append(s.BranchTipCalls, branch)
	if s.BranchTipErr != nil {
		return "", s.BranchTipErr
	}
	tip, ok := s.BranchTips[branch]
	if !ok {
		return "", fmt.Errorf("branch not found: %s", branch)
	}
	return tip, nil
}

func (s *SpySourceControlRepository) GetCommit(_ context.Context, _, commitID string) (entities.Commit, error) {
	s.CommitCalls = append(s.CommitCalls, commitID)
	if s.CommitErr != nil {
		return entities.Commit{}, s.CommitErr
	}
	if commit, ok := s.Commits[commitID]; ok {
		return commit, nil
	}
	return entities.Commit{ID: commitID}, nil
}

func (s *SpySourceControlRepository) GetDifferences(
	_ context.Context, _, beforeCommitID, afterCommitID string,
) ([]entities.Difference, error) {
	s.DifferenceCalls = append(s.DifferenceCalls, [2]string{beforeCommitID, afterCommitID})
	return s.Differences, s.DifferencesErr
}

func (s *SpySourceControlRepository) GetBlob(_ context.Context, _, blobID string) ([]byte, error) {
	s.BlobCalls = append(s.BlobCalls, blobID)
	if s.BlobErr != nil {
		return nil, s.BlobErr
	}
	content, ok := s.Blobs[blobID]
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", blobID)
	}
	return []byte(content), nil
}
