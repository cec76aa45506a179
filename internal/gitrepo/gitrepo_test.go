package gitrepo_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/gitrepo"
)

// initRepo creates a throwaway Git repository with one commit on "main" and
// returns an opened *gitrepo.Repo plus the repository's directory.
func initRepo(t *testing.T) (*gitrepo.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}

	run("init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	run("add", "README.md")
	run("commit", "-m", "initial commit")

	repo, err := gitrepo.Open(dir)
	require.NoError(t, err)
	return repo, dir
}

func TestHeadCommitAndCurrentBranch(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.Len(t, head, 40)

	branch, ok, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "main", branch)
}

func TestCreateBranchAndBranchHead(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.CreateBranch(ctx, "feature-1", head))

	exists, err := repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	require.True(t, exists)

	branchHead, err := repo.BranchHead(ctx, "feature-1")
	require.NoError(t, err)
	require.Equal(t, head, branchHead)
}

func TestCommitsBetweenOrdersOldestFirst(t *testing.T) {
	repo, dir := initRepo(t)
	ctx := context.Background()

	base, err := repo.HeadCommit(ctx)
	require.NoError(t, err)

	writeAndCommit := func(name, msg string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(msg), 0o644))
		cmd := exec.Command("git", "add", name)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
		cmd = exec.Command("git", "commit", "-m", msg)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		require.NoError(t, cmd.Run())
	}
	writeAndCommit("a.txt", "first")
	writeAndCommit("b.txt", "second")

	commits, err := repo.CommitsBetween(ctx, base, "HEAD")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	require.Equal(t, "first", commits[0].Message)
	require.Equal(t, "second", commits[1].Message)
}

func TestIsRebaseInProgressFalseOnCleanRepo(t *testing.T) {
	repo, _ := initRepo(t)
	inProgress, err := repo.IsRebaseInProgress(context.Background())
	require.NoError(t, err)
	require.False(t, inProgress)
}

func TestIndexLockedFalseByDefault(t *testing.T) {
	repo, _ := initRepo(t)
	locked, err := repo.IndexLocked(context.Background())
	require.NoError(t, err)
	require.False(t, locked)
}
