package internal

import (
	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/infrastructure/controllers"
)

// AppInternal holds everything the entry point needs from the container.
type AppInternal struct {
	controllers []entities.Controller
	lambda      *controllers.LambdaController
}

// NewAppInternal creates the application root.
func NewAppInternal(
	controllerList *[]entities.Controller,
	lambdaController *controllers.LambdaController,
) *AppInternal {
	return &AppInternal{
		controllers: *controllerList,
		lambda:      lambdaController,
	}
}

// GetControllers returns the CLI controllers in registration order.
func (it *AppInternal) GetControllers() []entities.Controller {
	return it.controllers
}

// GetLambdaController returns the controller serving the Lambda runtime.
func (it *AppInternal) GetLambdaController() *controllers.LambdaController {
	return it.lambda
}
