package controllers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/reqguard/internal/domain/commands"
	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// DetectController handles the "detect" subcommand.
type DetectController struct {
	command commands.DetectChanges
}

// NewDetectController creates a new DetectController.
func NewDetectController(command commands.DetectChanges) *DetectController {
	return &DetectController{command: command}
}

// GetBind returns the Cobra command metadata for the detect controller.
func (it *DetectController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "detect",
		Short: "List the requirement entries a commit added or modified",
		Long: `Diff a commit against its first parent and print the requirement
entries it added or modified in any requirements file, as the JSON change set
the reconciler consumes.

Reads from CodeCommit by default. Pass --repo-dir to read a local clone
instead.`,
	}
}

// AddFlags adds the detect-specific flags to the given Cobra command.
func (it *DetectController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("repo-dir", "", "Read commits from this local git clone")
	cmd.Flags().String("repository", "", "Source repository name (default: SOURCE_REPOSITORY)")
	cmd.Flags().String("branch", "", "Branch used when no commit is given (default: the configured default branch)")
	cmd.Flags().String("commit", "", "Commit to inspect (default: tip of --branch)")
}

// Execute runs the change detector and prints the change set.
func (it *DetectController) Execute(cmd *cobra.Command, _ []string) error {
	log := runLogger("detect")
	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	repoDir, _ := cmd.Flags().GetString("repo-dir")
	if repoDir != "" {
		settings.Backends.SourceControl = entities.BackendGit
		settings.LocalRepositoryPath = repoDir
	}
	if validateErr := settings.ValidateForDetection(); validateErr != nil {
		return validateErr
	}

	repository, _ := cmd.Flags().GetString("repository")
	branch, _ := cmd.Flags().GetString("branch")
	commitID, _ := cmd.Flags().GetString("commit")
	if commitID == "" && repoDir != "" && branch == "" {
		commitID = "HEAD"
	}

	log.Debugf("Inspecting %s (commit %q, branch %q)", settings.Backends.SourceControl, commitID, branch)
	changeSet, err := it.command.Execute(context.Background(), settings, entities.CommitEvent{
		Repository: repository,
		Branch:     entities.BranchFromRef(branch),
		CommitID:   commitID,
	})
	if err != nil {
		return fmt.Errorf("change detection failed: %w", err)
	}

	log.Infof("Detected %d changed requirement entries", len(changeSet.ChangedPackages))
	return writeJSON(cmd, changeSet)
}
