//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/reqguard/internal/domain/commands"
	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// StubReconcileCommand is a stub implementation of commands.Reconcile.
type StubReconcileCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Result           entities.ReconcileResult
	LastSettings     *entities.Settings
	LastChangeSet    entities.ChangeSet
	LastOpts         commands.ReconcileOptions
}

var _ commands.Reconcile = (*StubReconcileCommand)(nil)

func (s *StubReconcileCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	changeSet entities.ChangeSet,
	opts commands.ReconcileOptions,
) (entities.ReconcileResult, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastChangeSet = changeSet
	s.LastOpts = opts
	return s.Result, s.ExecuteErr
}
