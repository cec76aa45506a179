package stack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/stack"
)

func TestPushEntryChainsParentAndChild(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")

	first := s.PushEntry("feature-1", "aaa", "first commit")
	second := s.PushEntry("feature-2", "bbb", "second commit")

	require.Len(t, s.Entries, 2)
	assert.Empty(t, s.Entries[0].ParentID)
	assert.Equal(t, first, s.Entries[1].ParentID)
	assert.Equal(t, []string{second}, s.Entries[0].Children)
	assert.NoError(t, s.Validate())
}

func TestPopEntryDetachesParentChild(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("feature-1", "aaa", "first commit")
	s.PushEntry("feature-2", "bbb", "second commit")

	popped, ok := s.PopEntry()
	require.True(t, ok)
	assert.Equal(t, "bbb", popped.CommitHash)
	assert.Len(t, s.Entries, 1)
	assert.Empty(t, s.Entries[0].Children)
	assert.NoError(t, s.Validate())
}

func TestPopEntryOnEmptyStack(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	_, ok := s.PopEntry()
	assert.False(t, ok)
}

func TestValidateRejectsDuplicateMessage(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("feature-1", "aaa", "same message")
	s.PushEntry("feature-2", "bbb", "same message")

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same message")
}

func TestValidateRejectsDuplicateBranch(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("shared", "aaa", "first")
	s.PushEntry("shared", "bbb", "second")

	err := s.Validate()
	require.Error(t, err)
}

func TestMarkSubmittedEnforcesPullRequestID(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	id := s.PushEntry("feature-1", "aaa", "msg")

	require.NoError(t, s.Validate())
	require.True(t, s.MarkSubmitted(id, "pr-42"))

	entry := s.EntryMap[id]
	assert.True(t, entry.IsSubmitted)
	assert.Equal(t, "pr-42", entry.PullRequestID)
	assert.NoError(t, s.Validate())
}

func TestRepairConsistencyRebuildsEntryMapAfterDeserialization(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("feature-1", "aaa", "msg")

	// Simulate a fresh JSON unmarshal: entries is populated, entry_map is nil.
	s.EntryMap = nil
	s.RepairConsistency()

	require.Len(t, s.EntryMap, 1)
	assert.Equal(t, s.Entries[0].ID, s.EntryMap[s.Entries[0].ID].ID)
}

type fakeGitRepo struct {
	gitrepo.GitRepo
	branches map[string]string
}

func (f *fakeGitRepo) BranchExists(_ context.Context, name string) (bool, error) {
	_, ok := f.branches[name]
	return ok, nil
}

func (f *fakeGitRepo) BranchHead(_ context.Context, name string) (string, error) {
	return f.branches[name], nil
}

func TestValidateGitReportsDrift(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("feature-1", "aaa", "first")
	s.PushEntry("feature-2", "bbb", "second")

	repo := &fakeGitRepo{branches: map[string]string{
		"feature-1": "aaa",
		// feature-2 missing entirely: branch deleted out-of-band.
	}}

	issues, err := s.ValidateGit(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "feature-2", issues[0].Branch)
}

func TestValidateGitDetectsHeadMismatch(t *testing.T) {
	s := stack.NewStack("s1", "feature", "main", "")
	s.PushEntry("feature-1", "aaa", "first")

	repo := &fakeGitRepo{branches: map[string]string{"feature-1": "ccc"}}

	issues, err := s.ValidateGit(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Reason, "does not match")
}
