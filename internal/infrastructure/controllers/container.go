package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewDetectController); err != nil {
		return err
	}
	if err := container.Provide(NewReconcileController); err != nil {
		return err
	}
	if err := container.Provide(NewLambdaController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	detectController *DetectController,
	reconcileController *ReconcileController,
	lambdaController *LambdaController,
) *[]entities.Controller {
	return &[]entities.Controller{
		detectController,
		reconcileController,
		lambdaController,
	}
}
