package repositories

import (
	"context"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// BuildRepository starts the vulnerability scan job.
type BuildRepository interface {
	// StartBuild starts a build and returns its identifier.
	StartBuild(ctx context.Context, request entities.BuildRequest) (string, error)
}
