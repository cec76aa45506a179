package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"cascade.dev/cascade/internal/cerrors"
)

func (r *Repo) gitDir() string {
	out, err := r.runner.run(context.Background(), "rev-parse", "--git-dir")
	if err != nil {
		return filepath.Join(r.root, ".git")
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(r.root, out)
}

// IsRebaseInProgress reports whether Git's own rebase state directories
// exist, per spec.md §4.8: "persisted by the presence of Git's own rebase
// state directories".
func (r *Repo) IsRebaseInProgress(ctx context.Context) (bool, error) {
	gd := r.gitDir()
	for _, p := range []string{"rebase-merge", "rebase-apply", "REBASE_HEAD"} {
		if _, err := os.Stat(filepath.Join(gd, p)); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// AbortRebase deletes Git's rebase state directories atomically via git's
// own `rebase --abort`, returning the cursor to the original branch.
func (r *Repo) AbortRebase(ctx context.Context) error {
	_, err := r.runner.run(ctx, "rebase", "--abort")
	return err
}

// IndexLocked reports whether .git/index.lock is present. The core never
// removes it itself; see ProbeRunningGitProcess (used by
// NewIndexLockedError) for the best-effort "is a git process actually
// running" probe.
func (r *Repo) IndexLocked(ctx context.Context) (bool, error) {
	_, err := os.Stat(filepath.Join(r.gitDir(), "index.lock"))
	return err == nil, nil
}

// ProbeRunningGitProcess makes a best-effort attempt to determine whether a
// git process is currently running against this working copy. It returns
// (probed, found): probed is false if the platform offers no reliable way
// to check, in which case the caller must not delete the lock file.
func ProbeRunningGitProcess() (probed bool, found bool) {
	if runtime.GOOS == "windows" {
		return false, false
	}
	out, err := exec.Command("pgrep", "-x", "git").Output()
	if err != nil {
		// pgrep exits 1 when nothing matches; that is a valid negative probe.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return true, false
		}
		return false, false
	}
	return true, strings.TrimSpace(string(out)) != ""
}

// NewIndexLockedError builds the structured error for a held index.lock,
// probing for a live git process first.
func NewIndexLockedError() *cerrors.IndexLockedError {
	probed, found := ProbeRunningGitProcess()
	return &cerrors.IndexLockedError{ProbedRunningProcess: probed, ProcessFound: found}
}
