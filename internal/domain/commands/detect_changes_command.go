package commands

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/reqguard/internal/infrastructure/repositories"
)

// commentPattern matches a pip comment: "#" at the start of a line or after
// whitespace, up to the end of the line.
var commentPattern = regexp.MustCompile(`(^|\s)#.*$`)

// DetectChanges is the interface for the change detector.
type DetectChanges interface {
	Execute(ctx context.Context, settings *entities.Settings, event entities.CommitEvent) (entities.ChangeSet, error)
}

// DetectChangesCommand finds the requirement lines a commit added or
// modified in any requirements file.
type DetectChangesCommand struct {
	sourceControlRegistry *infraRepos.SourceControlRegistry
}

// NewDetectChangesCommand creates a new DetectChangesCommand.
func NewDetectChangesCommand(sourceControlRegistry *infraRepos.SourceControlRegistry) *DetectChangesCommand {
	return &DetectChangesCommand{sourceControlRegistry: sourceControlRegistry}
}

// Execute resolves the commit, diffs it against its first parent and
// returns the union of the added lines of every qualifying file.
func (it *DetectChangesCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	event entities.CommitEvent,
) (entities.ChangeSet, error) {
	sourceControl, err := it.sourceControlRegistry.Get(settings.Backends.SourceControl, settings)
	if err != nil {
		return entities.ChangeSet{}, err
	}

	repository := event.Repository
	if repository == "" {
		repository = settings.SourceRepository
	}
	if repository == "" && sourceControl.Name() != entities.BackendGit {
		return entities.ChangeSet{}, entities.ErrMissingRepository
	}

	commitID, err := resolveCommitID(ctx, sourceControl, repository, event, settings.DefaultBranch)
	if err != nil {
		return entities.ChangeSet{}, err
	}

	commit, err := sourceControl.GetCommit(ctx, repository, commitID)
	if err != nil {
		return entities.ChangeSet{}, fmt.Errorf("failed to get commit %s: %w", commitID, err)
	}
	if commit.ID != "" {
		commitID = commit.ID
	}

	differences, err := sourceControl.GetDifferences(ctx, repository, commit.FirstParent(), commitID)
	if err != nil {
		return entities.ChangeSet{}, fmt.Errorf("failed to get differences for %s: %w", commitID, err)
	}

	logger.Debugf("[detect] %s: %q, %d changed files", shortID(commitID), firstLine(commit.Message), len(differences))

	changed := mapset.NewSet()
	for _, diff := range differences {
		if diff.After == nil || !entities.IsRequirementsPath(diff.After.Path) {
			logger.Debugf("[detect] Skipping %s", diff.Path())
			continue
		}

		added, diffErr := addedLines(ctx, sourceControl, repository, diff)
		if diffErr != nil {
			return entities.ChangeSet{}, diffErr
		}

		logger.Debugf("[detect] %s: %d added or modified entries", diff.After.Path, len(added))
		for _, line := range added {
			changed.Add(line)
		}
	}

	changeSet := entities.ChangeSet{
		ChangedPackages: toSortedStrings(changed),
		CommitID:        commitID,
	}
	logger.Infof(
		"[detect] %s@%s: %d changed requirement entries",
		repository, shortID(commitID), len(changeSet.ChangedPackages),
	)
	return changeSet, nil
}

// resolveCommitID falls back to the branch tip on branch-creation events.
func resolveCommitID(
	ctx context.Context,
	sourceControl repositories.SourceControlRepository,
	repository string,
	event entities.CommitEvent,
	defaultBranch string,
) (string, error) {
	if !event.IsBranchCreation() {
		return event.CommitID, nil
	}

	branch := event.Branch
	if branch == "" {
		branch = defaultBranch
	}

	commitID, err := sourceControl.GetBranchTip(ctx, repository, branch)
	if err != nil {
		return "", fmt.Errorf("failed to resolve tip of branch %q: %w", branch, err)
	}
	logger.Infof("[detect] No commit in event, using tip of %q: %s", branch, shortID(commitID))
	return commitID, nil
}

// addedLines returns the whitespace-separated entries present after the
// change but not before it.
func addedLines(
	ctx context.Context,
	sourceControl repositories.SourceControlRepository,
	repository string,
	diff entities.Difference,
) ([]string, error) {
	after, err := sourceControl.GetBlob(ctx, repository, diff.After.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s (%s): %w", diff.After.ID, diff.After.Path, err)
	}

	var before []byte
	if diff.Before != nil && diff.Before.ID != "" {
		before, err = sourceControl.GetBlob(ctx, repository, diff.Before.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get blob %s (%s): %w", diff.Before.ID, diff.Before.Path, err)
		}
	}

	delta := tokenSet(after).Difference(tokenSet(before))
	return toSortedStrings(delta), nil
}

func tokenSet(content []byte) mapset.Set {
	set := mapset.NewSet()
	for _, line := range strings.Split(string(content), "\n") {
		for _, token := range strings.Fields(commentPattern.ReplaceAllString(line, "")) {
			set.Add(token)
		}
	}
	return set
}

func toSortedStrings(set mapset.Set) []string {
	result := make([]string, 0, set.Cardinality())
	for _, item := range set.ToSlice() {
		result = append(result, item.(string))
	}
	sort.Strings(result)
	return result
}

func shortID(commitID string) string {
	const shortLen = 8
	if len(commitID) > shortLen {
		return commitID[:shortLen]
	}
	return commitID
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
