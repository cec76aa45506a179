package stack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/stack"
)

func newRepoWithOneStack(t *testing.T) (*stack.RepositoryMetadata, *stack.Stack) {
	t.Helper()
	m := stack.NewRepositoryMetadata()
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("feature-1", "aaa", "first")
	m.Stacks[s.ID] = s
	m.Commits["aaa"] = &stack.CommitMetadata{CommitHash: "aaa", StackID: s.ID, EntryID: s.Entries[0].ID, Branch: "feature-1"}
	return m, s
}

func TestRepositoryValidateRejectsTwoActiveStacks(t *testing.T) {
	m, s1 := newRepoWithOneStack(t)
	s2 := stack.NewStack("s2", "other", "main", "")
	m.Stacks[s2.ID] = s2

	s1.IsActive = true
	s2.IsActive = true

	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one may be")
}

func TestRepositoryValidateRejectsDanglingActivePointer(t *testing.T) {
	m, _ := newRepoWithOneStack(t)
	m.ActiveStackID = "does-not-exist"

	err := m.Validate()
	require.Error(t, err)
}

func TestRepositoryValidateRejectsDanglingEditMode(t *testing.T) {
	m, s := newRepoWithOneStack(t)
	m.EditMode = stack.EditMode{IsActive: true, StackID: s.ID, TargetEntryID: "missing-entry"}

	err := m.Validate()
	require.Error(t, err)
}

func TestDeleteStackCascadesCommitMetadata(t *testing.T) {
	m, s := newRepoWithOneStack(t)
	m.ActiveStackID = s.ID

	require.True(t, m.DeleteStack(s.ID))

	_, stackExists := m.Stacks[s.ID]
	assert.False(t, stackExists)
	assert.Empty(t, m.Commits)
	assert.Empty(t, m.ActiveStackID)
}

func TestRepairConsistencyPrunesOrphanedCommitMetadata(t *testing.T) {
	m, _ := newRepoWithOneStack(t)
	m.Commits["orphan"] = &stack.CommitMetadata{CommitHash: "orphan", StackID: "unknown-stack"}

	m.RepairConsistency()

	_, ok := m.Commits["orphan"]
	assert.False(t, ok)
	_, ok = m.Commits["aaa"]
	assert.True(t, ok)
}
