package cleanup_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/cleanup"
	"cascade.dev/cascade/internal/gitrepo"
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

func TestScanClassifiesFullyMergedBranch(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "old-feature", head))

	eng := cleanup.New(repo, nil)
	candidates, err := eng.Scan(ctx, "main", "main", map[string]*stack.Stack{}, cleanup.Options{})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	require.Equal(t, cleanup.FullyMerged, candidates[0].Kind)
	require.Equal(t, "old-feature", candidates[0].BranchName)
}

func TestScanSkipsProtectedAndCurrentBranches(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "develop", head))

	eng := cleanup.New(repo, nil)
	candidates, err := eng.Scan(ctx, "main", "main", map[string]*stack.Stack{}, cleanup.Options{})
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestRunDeletesFullyMergedBranch(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "old-feature", head))

	eng := cleanup.New(repo, nil)
	candidates := []cleanup.Candidate{{Kind: cleanup.FullyMerged, BranchName: "old-feature"}}
	require.NoError(t, eng.Run(ctx, candidates, map[string]*stack.Stack{}, cleanup.Options{}))

	exists, err := repo.BranchExists(ctx, "old-feature")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRunDryRunLeavesBranchesIntact(t *testing.T) {
	repo, _ := initRepo(t)
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBranch(ctx, "old-feature", head))

	eng := cleanup.New(repo, nil)
	candidates := []cleanup.Candidate{{Kind: cleanup.FullyMerged, BranchName: "old-feature"}}
	require.NoError(t, eng.Run(ctx, candidates, map[string]*stack.Stack{}, cleanup.Options{DryRun: true}))

	exists, err := repo.BranchExists(ctx, "old-feature")
	require.NoError(t, err)
	require.True(t, exists)
}
