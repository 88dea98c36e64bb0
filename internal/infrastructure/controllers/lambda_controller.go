package controllers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/reqguard/internal/domain/commands"
	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

const (
	// HandlerEnvVar is set by the Lambda runtime to the configured handler.
	HandlerEnvVar = "_HANDLER"

	HandlerChangeDetector = "change-detector"
	HandlerReconciler     = "reconciler"

	dryRunEnvVar = "DRY_RUN"
)

// LambdaController serves the two functions of the pipeline on the Lambda
// runtime: the change detector, triggered by CodeCommit, and the reconciler,
// invoked with the detector's result.
type LambdaController struct {
	detect       commands.DetectChanges
	reconcile    commands.Reconcile
	loadSettings func() (*entities.Settings, error)
	start        func(handler interface{})
}

// NewLambdaController creates a new LambdaController.
func NewLambdaController(detect commands.DetectChanges, reconcile commands.Reconcile) *LambdaController {
	return &LambdaController{
		detect:       detect,
		reconcile:    reconcile,
		loadSettings: entities.NewSettingsFromEnvironment,
		start:        lambda.Start,
	}
}

// GetBind returns the Cobra command metadata for the lambda controller.
func (it *LambdaController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "lambda",
		Short: "Serve a pipeline function on the AWS Lambda runtime",
		Long: `Start the Lambda runtime loop for one of the pipeline functions:

  change-detector  CodeCommit trigger, returns the change set
  reconciler       receives the change set (directly or as a destination
                   record) and publishes the missing requirements

The handler defaults to the function's configured handler (` + HandlerEnvVar + `).`,
	}
}

// AddFlags adds the lambda-specific flags to the given Cobra command.
func (it *LambdaController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("handler", "", "Handler to serve (change-detector, reconciler)")
}

// Execute blocks in the Lambda runtime loop.
func (it *LambdaController) Execute(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("handler")
	if name == "" {
		name = os.Getenv(HandlerEnvVar)
	}
	return it.Serve(name)
}

// Serve starts the runtime loop for the named handler.
func (it *LambdaController) Serve(name string) error {
	handler, err := it.Handler(name)
	if err != nil {
		return err
	}

	logger.Infof("[lambda] Serving %s", name)
	it.start(handler)
	return nil
}

// Handler returns the handler function registered under name. Handler
// names may carry a file prefix such as "bootstrap.reconciler".
func (it *LambdaController) Handler(name string) (interface{}, error) {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	switch name {
	case HandlerChangeDetector:
		return it.HandleCommitEvent, nil
	case HandlerReconciler:
		return it.HandleChangeSet, nil
	default:
		return nil, fmt.Errorf(
			"unknown handler %q (expected %s or %s)", name, HandlerChangeDetector, HandlerReconciler,
		)
	}
}

// HandleCommitEvent runs the change detector for the first reference of a
// CodeCommit trigger event.
func (it *LambdaController) HandleCommitEvent(
	ctx context.Context,
	event events.CodeCommitEvent,
) (entities.ChangeSet, error) {
	log := requestLogger(ctx, HandlerChangeDetector)

	if len(event.Records) == 0 || len(event.Records[0].CodeCommit.References) == 0 {
		return entities.ChangeSet{}, entities.ErrEmptyEvent
	}
	record := event.Records[0]
	reference := record.CodeCommit.References[0]

	commitEvent := entities.CommitEvent{
		Repository: entities.RepositoryFromARN(record.EventSourceARN),
		Branch:     entities.BranchFromRef(reference.Ref),
		CommitID:   reference.Commit,
	}
	log.Infof("[lambda] %s on %s@%s", commitEvent.Repository, commitEvent.Branch, commitEvent.CommitID)

	if reference.Deleted {
		log.Infof("[lambda] Branch %s was deleted, nothing to inspect", commitEvent.Branch)
		return entities.ChangeSet{ChangedPackages: []string{}, CommitID: reference.Commit}, nil
	}

	settings, err := it.loadSettings()
	if err != nil {
		return entities.ChangeSet{}, err
	}

	changeSet, err := it.detect.Execute(ctx, settings, commitEvent)
	if err != nil {
		log.Errorf("[lambda] Change detection failed: %v", err)
		return entities.ChangeSet{}, err
	}
	log.Infof("[lambda] Changed packages: %v", changeSet.ChangedPackages)
	return changeSet, nil
}

// HandleChangeSet runs the reconciler for a change set.
func (it *LambdaController) HandleChangeSet(
	ctx context.Context,
	event entities.ReconcileEvent,
) (entities.ReconcileResult, error) {
	log := requestLogger(ctx, HandlerReconciler)
	changeSet := event.Payload()
	if changeSet.ChangedPackages == nil {
		changeSet.ChangedPackages = []string{}
	}
	if !changeSet.IsEmpty() {
		if err := entities.ValidateCommitID(changeSet.CommitID); err != nil {
			log.Errorf("[lambda] Rejecting change set: %v", err)
			return entities.ReconcileResult{}, err
		}
	}

	settings, err := it.loadSettings()
	if err != nil {
		return entities.ReconcileResult{}, err
	}

	dryRun := os.Getenv(dryRunEnvVar) == "true"
	if validateErr := settings.ValidateForPublish(dryRun); validateErr != nil {
		return entities.ReconcileResult{}, validateErr
	}

	log.Infof("[lambda] Reconciling %d entries for commit %s", len(changeSet.ChangedPackages), changeSet.CommitID)
	result, err := it.reconcile.Execute(ctx, settings, changeSet, commands.ReconcileOptions{DryRun: dryRun})
	if err != nil {
		log.Errorf("[lambda] Reconciliation failed: %v", err)
		return entities.ReconcileResult{}, err
	}
	return result, nil
}

// requestLogger tags log lines with the Lambda request id, or a fresh id
// outside the runtime.
func requestLogger(ctx context.Context, handler string) *logger.Entry {
	requestID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return logger.WithFields(logger.Fields{
		"handler":    handler,
		"request_id": requestID,
	})
}
