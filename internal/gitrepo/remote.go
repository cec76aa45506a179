package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cascade.dev/cascade/internal/cerrors"
)

func (r *Repo) UpstreamOf(ctx context.Context, name string) (string, string, bool, error) {
	out, err := r.runner.run(ctx, "rev-parse", "--abbrev-ref", name+"@{upstream}")
	if err != nil {
		return "", "", false, nil
	}
	parts := strings.SplitN(out, "/", 2)
	if len(parts) != 2 {
		return "", "", false, nil
	}
	return parts[0], parts[1], true, nil
}

func (r *Repo) AheadBehind(ctx context.Context, name string, upstream string) (int, int, error) {
	out, err := r.runner.run(ctx, "rev-list", "--left-right", "--count", name+"..."+upstream)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected rev-list output %q", cerrors.ErrGit, out)
	}
	ahead, err1 := strconv.Atoi(fields[0])
	behind, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("%w: parse rev-list counts %q", cerrors.ErrGit, out)
	}
	return ahead, behind, nil
}

func (r *Repo) Fetch(ctx context.Context, remote string) error {
	if remote == "" {
		remote = "origin"
	}
	_, err := r.runner.run(ctx, "fetch", remote)
	return err
}

// errStaleRemoteInfo indicates a push failed because the remote moved since
// the last fetch — the caller should fetch and retry, not force blindly.
var errStaleRemoteInfo = errors.New("cascade: remote has new commits, fetch before pushing")

func (r *Repo) Push(ctx context.Context, name string, force bool) error {
	args := []string{"push", "origin", name}
	if force {
		args = append(args, "--force-with-lease")
	}
	_, err := r.runner.run(ctx, args...)
	if err == nil {
		return nil
	}
	var gitErr *cerrors.GitCommandError
	if errors.As(err, &gitErr) && (strings.Contains(gitErr.Stderr, "stale info") || strings.Contains(gitErr.Stderr, "fetch first")) {
		return fmt.Errorf("%w: %v", errStaleRemoteInfo, err)
	}
	return err
}
