package controllers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/reqguard/internal/domain/commands"
	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

const localCommitID = "local"

// ReconcileController handles the "reconcile" subcommand.
type ReconcileController struct {
	command commands.Reconcile
}

// NewReconcileController creates a new ReconcileController.
func NewReconcileController(command commands.Reconcile) *ReconcileController {
	return &ReconcileController{command: command}
}

// GetBind returns the Cobra command metadata for the reconcile controller.
func (it *ReconcileController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "reconcile [requirement...]",
		Short: "Publish the requirements missing from the package repository",
		Long: `Compare requirement entries against the CodeArtifact repository,
resolve bare names to their latest PyPI version, upload the missing set and
start the scan build.

Entries come from the arguments, from --file, or from a change set JSON
document on stdin when "-" is the only argument.`,
	}
}

// AddFlags adds the reconcile-specific flags to the given Cobra command.
func (it *ReconcileController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Read requirement entries from this requirements file")
	cmd.Flags().String("commit", "", "Commit id used to name the uploaded file")
	cmd.Flags().String("output-dir", "", "Write the missing set below this directory instead of S3")
}

// Execute runs the reconciler and prints the result.
func (it *ReconcileController) Execute(cmd *cobra.Command, args []string) error {
	log := runLogger("reconcile")
	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir != "" {
		settings.Backends.ObjectStorage = entities.BackendFilesystem
		settings.OutputDir = outputDir
	}
	if validateErr := settings.ValidateForPublish(dryRun); validateErr != nil {
		return validateErr
	}

	changeSet, err := it.readChangeSet(cmd, args)
	if err != nil {
		return err
	}

	log.Debugf("Reconciling %d entries for commit %s", len(changeSet.ChangedPackages), changeSet.CommitID)
	result, err := it.command.Execute(context.Background(), settings, changeSet, commands.ReconcileOptions{
		DryRun: dryRun,
	})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if result.Published() {
		log.Infof("Scan build %s started for %s", result.BuildID, result.Location)
	}
	return writeJSON(cmd, result)
}

func (it *ReconcileController) readChangeSet(cmd *cobra.Command, args []string) (entities.ChangeSet, error) {
	changeSet := entities.ChangeSet{ChangedPackages: []string{}}

	if len(args) == 1 && args[0] == "-" {
		var event entities.ReconcileEvent
		if err := decodeJSON(cmd.InOrStdin(), &event); err != nil {
			return changeSet, fmt.Errorf("failed to read change set from stdin: %w", err)
		}
		changeSet = event.Payload()
	} else {
		changeSet.ChangedPackages = append(changeSet.ChangedPackages, args...)
	}

	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return changeSet, fmt.Errorf("failed to read %s: %w", file, err)
		}
		changeSet.ChangedPackages = append(changeSet.ChangedPackages, strings.Fields(string(content))...)
	}

	if commitID, _ := cmd.Flags().GetString("commit"); commitID != "" {
		changeSet.CommitID = commitID
	}
	if changeSet.CommitID == "" {
		changeSet.CommitID = localCommitID
	}
	return changeSet, nil
}
