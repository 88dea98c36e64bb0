//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// SpyObjectStorageRepository implements repositories.ObjectStorageRepository
// in memory.
type SpyObjectStorageRepository struct {
	Objects map[string][]byte
	PutErr  error
	PutKeys []string
}

var _ repositories.ObjectStorageRepository = (*SpyObjectStorageRepository)(nil)

func (s *SpyObjectStorageRepository) Put(_ context.Context, key string, content []byte) (string, error) {
	s.PutKeys = append(s.PutKeys, key)
	if s.PutErr != nil {
		return "", s.PutErr
	}
	if s.Objects == nil {
		s.Objects = make(map[string][]byte)
	}
	s.Objects[key] = content
	return "memory://" + key, nil
}

// SpyBuildRepository implements repositories.BuildRepository.
type SpyBuildRepository struct {
	BuildID  string
	StartErr error
	Requests []entities.BuildRequest
}

var _ repositories.BuildRepository = (*SpyBuildRepository)(nil)

func (s *SpyBuildRepository) StartBuild(_ context.Context, request entities.BuildRequest) (string, error) {
	s.Requests = append(s.Requests, request)
	if s.StartErr != nil {
		return "", s.StartErr
	}
	return s.BuildID, nil
}
