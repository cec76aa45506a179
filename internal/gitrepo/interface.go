// Package gitrepo defines the GitRepo port — the narrow capability surface
// cascade's core packages use to inspect and mutate a Git working copy —
// and a concrete implementation backed by go-git for reads and the git
// binary for mutating/porcelain operations.
package gitrepo

import (
	"context"
	"time"
)

// Commit is the minimal commit view the core needs.
type Commit struct {
	Hash      string
	Message   string
	Author    string
	When      time.Time
	ParentIDs []string
}

// Conflict carries the files left unresolved by a cherry-pick or merge.
type Conflict struct {
	Files []string
}

func (c *Conflict) Error() string {
	return "conflict: " + joinFiles(c.Files)
}

func joinFiles(files []string) string {
	out := ""
	for i, f := range files {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}

// GitRepo is the capability set spec.md §4.2 permits the core to use. No
// caller outside internal/gitrepo constructs a Commit or touches os/exec or
// go-git directly.
type GitRepo interface {
	HeadCommit(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, bool, error) // name, ok (false if detached)

	BranchExists(ctx context.Context, name string) (bool, error)
	CreateBranch(ctx context.Context, name string, atCommit string) error
	Checkout(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string, force bool) error

	ListBranches(ctx context.Context) ([]string, error)
	BranchHead(ctx context.Context, name string) (string, error)

	CommitsBetween(ctx context.Context, from, to string) ([]Commit, error)
	CommitExists(ctx context.Context, hash string) (bool, error)
	GetCommit(ctx context.Context, hash string) (Commit, error)

	CherryPick(ctx context.Context, hash string) (string, error) // returns new hash, or a *cerrors.ConflictError
	HasConflicts(ctx context.Context) (bool, error)
	ConflictedFiles(ctx context.Context) ([]string, error)
	StageAll(ctx context.Context) error
	ResetBranchTo(ctx context.Context, name string, hash string) error

	UpstreamOf(ctx context.Context, name string) (remote string, remoteBranch string, ok bool, err error)
	AheadBehind(ctx context.Context, name string, upstream string) (ahead int, behind int, err error)
	Fetch(ctx context.Context, remote string) error
	Push(ctx context.Context, name string, force bool) error

	IsRebaseInProgress(ctx context.Context) (bool, error)
	AbortRebase(ctx context.Context) error
	IndexLocked(ctx context.Context) (bool, error)
}
