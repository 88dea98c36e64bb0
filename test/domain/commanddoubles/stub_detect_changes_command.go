//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/reqguard/internal/domain/commands"
	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// StubDetectChangesCommand is a stub implementation of commands.DetectChanges.
type StubDetectChangesCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Result           entities.ChangeSet
	LastSettings     *entities.Settings
	LastEvent        entities.CommitEvent
}

var _ commands.DetectChanges = (*StubDetectChangesCommand)(nil)

func (s *StubDetectChangesCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	event entities.CommitEvent,
) (entities.ChangeSet, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastEvent = event
	return s.Result, s.ExecuteErr
}
