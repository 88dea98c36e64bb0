package entities

import (
	"path"
	"strings"
)

const (
	// NullCommitID is sent by CodeCommit when a branch is created.
	NullCommitID = "0000000000000000000000000000000000000000"

	branchRefPrefix = "refs/heads/"
)

// CommitEvent is the part of a source-control notification the change
// detector acts upon.
type CommitEvent struct {
	Repository string // Source repository name
	Branch     string // Short branch name (without refs/heads/)
	CommitID   string // Commit that was pushed, empty or NullCommitID on branch creation
}

// IsBranchCreation reports whether the event carries no usable commit id,
// in which case the branch tip has to be looked up.
func (e CommitEvent) IsBranchCreation() bool {
	return e.CommitID == "" || e.CommitID == NullCommitID
}

// BranchFromRef turns "refs/heads/feature/x" into "feature/x".
func BranchFromRef(ref string) string {
	return strings.TrimPrefix(ref, branchRefPrefix)
}

// RepositoryFromARN returns the last segment of an ARN such as
// "arn:aws:codecommit:us-east-1:123456789012:my-repo".
func RepositoryFromARN(arn string) string {
	if idx := strings.LastIndex(arn, ":"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}

// Commit is a revision in the source repository.
type Commit struct {
	ID      string
	Parents []string
	Message string
}

// FirstParent returns the first parent commit id, or "" for a root commit.
func (c Commit) FirstParent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// BlobRef points at the contents of a file at a given revision.
type BlobRef struct {
	ID   string
	Path string
}

// Difference is one changed file between two commits. Before is nil for
// added files and After is nil for deleted files.
type Difference struct {
	Before *BlobRef
	After  *BlobRef
}

// Path returns the path the change applies to, preferring the after side.
func (d Difference) Path() string {
	if d.After != nil {
		return d.After.Path
	}
	if d.Before != nil {
		return d.Before.Path
	}
	return ""
}

// IsRequirementsPath reports whether a repository path is a candidate
// requirements file: any ".txt" file or a file named "requirements".
func IsRequirementsPath(p string) bool {
	if p == "" {
		return false
	}
	return path.Ext(p) == ".txt" || path.Base(p) == "requirements"
}
