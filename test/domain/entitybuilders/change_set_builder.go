//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/reqguard/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// ChangeSetBuilder helps create change sets with a fluent interface.
type ChangeSetBuilder struct {
	*testkit.BaseBuilder
	packages []string
	commitID string
}

// NewChangeSetBuilder creates a new change set builder with sensible defaults.
func NewChangeSetBuilder() *ChangeSetBuilder {
	return &ChangeSetBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		packages:    []string{},
		commitID:    "abc123",
	}
}

// WithPackages sets the changed requirement tokens.
func (b *ChangeSetBuilder) WithPackages(packages ...string) *ChangeSetBuilder {
	b.packages = append([]string{}, packages...)
	return b
}

// WithCommitID sets the commit the change set belongs to.
func (b *ChangeSetBuilder) WithCommitID(commitID string) *ChangeSetBuilder {
	b.commitID = commitID
	return b
}

// Build creates the change set (satisfies testkit.Builder interface).
func (b *ChangeSetBuilder) Build() interface{} {
	return b.BuildChangeSet()
}

// BuildChangeSet creates the change set with a concrete return type.
func (b *ChangeSetBuilder) BuildChangeSet() entities.ChangeSet {
	return entities.ChangeSet{
		ChangedPackages: append([]string{}, b.packages...),
		CommitID:        b.commitID,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *ChangeSetBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.packages = []string{}
	b.commitID = "abc123"
	return b
}

// Clone creates a deep copy of the ChangeSetBuilder.
func (b *ChangeSetBuilder) Clone() testkit.Builder {
	return &ChangeSetBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		packages:    append([]string{}, b.packages...),
		commitID:    b.commitID,
	}
}
