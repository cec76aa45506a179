package gitrepo

import (
	"context"
	"os/exec"
	"strings"

	"cascade.dev/cascade/internal/cerrors"
)

// CherryPick applies hash onto the current branch. On conflict it returns a
// *cerrors.ConflictError carrying the conflicted files rather than leaving
// the caller to re-derive them; the Git working copy is left mid-cherry-pick
// for the caller to resolve or abort, per spec.md §4.8's failure semantics.
func (r *Repo) CherryPick(ctx context.Context, hash string) (string, error) {
	if _, err := r.runner.run(ctx, "cherry-pick", "--allow-empty", hash); err != nil {
		conflicted, cErr := r.ConflictedFiles(ctx)
		if cErr == nil && len(conflicted) > 0 {
			return "", cerrors.NewConflictError("", conflicted)
		}
		return "", err
	}
	return r.HeadCommit(ctx)
}

func (r *Repo) HasConflicts(ctx context.Context) (bool, error) {
	files, err := r.ConflictedFiles(ctx)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

func (r *Repo) ConflictedFiles(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", "--diff-filter=U")
	cmd.Dir = r.root
	out, err := cmd.Output()
	if err != nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

func (r *Repo) StageAll(ctx context.Context) error {
	_, err := r.runner.run(ctx, "add", "-A")
	return err
}

func (r *Repo) ResetBranchTo(ctx context.Context, name string, hash string) error {
	current, ok, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if ok && current == name {
		_, err := r.runner.run(ctx, "reset", "--hard", hash)
		return err
	}
	_, err = r.runner.run(ctx, "branch", "-f", name, hash)
	return err
}
