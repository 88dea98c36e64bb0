package controllers

import "github.com/rios0rios0/reqguard/internal/domain/entities"

// WithSettingsLoader replaces the environment-based settings loader for testing.
func (it *LambdaController) WithSettingsLoader(load func() (*entities.Settings, error)) *LambdaController {
	it.loadSettings = load
	return it
}

// WithStarter replaces lambda.Start for testing.
func (it *LambdaController) WithStarter(start func(handler interface{})) *LambdaController {
	it.start = start
	return it
}

// RunLogger exposes runLogger for testing.
var RunLogger = runLogger
