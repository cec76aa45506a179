package integrity_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/integrity"
	"cascade.dev/cascade/internal/stack"
)

func initRepo(t *testing.T) (*gitrepo.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	env := append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.txt"), []byte("base"), 0o644))
	run("add", "base.txt")
	run("commit", "-m", "base commit")

	repo, err := gitrepo.Open(dir)
	require.NoError(t, err)
	return repo, dir
}

func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	env := append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	cmd := exec.Command("git", "add", name)
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	cmd = exec.Command("git", "commit", "-m", message)
	cmd.Dir = dir
	cmd.Env = env
	require.NoError(t, cmd.Run())
}

func TestDetectFindsMissingBranch(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)

	s := stack.NewStack("s1", "feat", "main", "")
	s.PushEntry("ghost-branch", head, "entry one")

	eng := integrity.New(repo)
	issues, err := eng.Detect(ctx, s)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, integrity.IssueMissing, issues[0].Kind)
}

func TestDetectFindsExtraCommitsAndIncorporateRepairs(t *testing.T) {
	repo, dir := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "entry-1", head))

	commitFile(t, dir, "extra.txt", "extra", "manual fixup")
	newHead, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.ResetBranchTo(ctx, "entry-1", newHead)) // move entry-1 to the extra commit, as a direct local commit would

	s := stack.NewStack("s1", "feat", "main", "")
	s.PushEntry("entry-1", head, "entry one")

	eng := integrity.New(repo)
	issues, err := eng.Detect(ctx, s)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, integrity.IssueExtraCommits, issues[0].Kind)
	require.Equal(t, newHead, issues[0].ActualCommit)

	require.NoError(t, eng.Repair(ctx, s, issues[0], integrity.RepairIncorporate))
	require.Equal(t, newHead, s.Entries[0].CommitHash)
	require.Contains(t, s.Entries[0].Message, "Incorporated commits")
}

func TestRepairSplitFixesParentChainForNonTopEntry(t *testing.T) {
	repo, dir := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "entry-1", head))

	commitFile(t, dir, "extra.txt", "extra", "manual fixup")
	newHead, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.ResetBranchTo(ctx, "entry-1", newHead)) // entry-1 now carries an unrecorded extra commit

	require.NoError(t, repo.CreateBranch(ctx, "entry-2", newHead))

	s := stack.NewStack("s1", "feat", "main", "")
	id1 := s.PushEntry("entry-1", head, "entry one")
	id2 := s.PushEntry("entry-2", newHead, "entry two")

	eng := integrity.New(repo)
	issues, err := eng.Detect(ctx, s)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, id1, issues[0].EntryID)

	require.NoError(t, eng.Repair(ctx, s, issues[0], integrity.RepairSplit))
	require.NoError(t, s.Validate())

	require.Len(t, s.Entries, 3)
	entry1 := s.EntryMap[id1]
	require.Len(t, entry1.Children, 1)
	newID := entry1.Children[0]
	require.NotEqual(t, id2, newID)

	newEntry := s.EntryMap[newID]
	require.Equal(t, id1, newEntry.ParentID)
	require.Equal(t, []string{id2}, newEntry.Children)

	entry2 := s.EntryMap[id2]
	require.Equal(t, newID, entry2.ParentID)
}

func TestCheckEnvironmentReportsClean(t *testing.T) {
	repo, _ := initRepo(t)
	diags := integrity.CheckEnvironment(context.Background(), repo)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		require.NotEqual(t, integrity.LevelError, d.Level)
	}
}
