package gitrepo

import (
	"context"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"cascade.dev/cascade/internal/cerrors"
)

// Repo is the concrete, instance-scoped GitRepo implementation: pure-Go
// reads go through an embedded go-git repository, mutating/porcelain
// operations shell out to the git binary via commandRunner. No package-level
// state is shared between Repo values opened on different working copies.
type Repo struct {
	root   string
	gogit  *gogit.Repository
	runner *commandRunner
}

var _ GitRepo = (*Repo)(nil)

// Open opens the Git working copy rooted at dir (or one of its ancestors).
func Open(dir string) (*Repo, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", cerrors.ErrIO, dir, err)
	}
	r, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", cerrors.ErrGit, absPath, err)
	}
	return &Repo{
		root:   absPath,
		gogit:  r,
		runner: &commandRunner{workingDir: absPath},
	}, nil
}

// Root returns the working copy's root directory.
func (r *Repo) Root() string { return r.root }

func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	head, err := r.gogit.Head()
	if err != nil {
		return "", fmt.Errorf("%w: resolve HEAD: %v", cerrors.ErrGit, err)
	}
	return head.Hash().String(), nil
}

func (r *Repo) CurrentBranch(ctx context.Context) (string, bool, error) {
	head, err := r.gogit.Head()
	if err != nil {
		return "", false, fmt.Errorf("%w: resolve HEAD: %v", cerrors.ErrGit, err)
	}
	if !head.Name().IsBranch() {
		return "", false, nil
	}
	return head.Name().Short(), true, nil
}

func (r *Repo) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := r.gogit.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: lookup branch %s: %v", cerrors.ErrGit, name, err)
	}
	return true, nil
}

func (r *Repo) CreateBranch(ctx context.Context, name string, atCommit string) error {
	_, err := r.runner.run(ctx, "branch", name, atCommit)
	return err
}

func (r *Repo) Checkout(ctx context.Context, name string) error {
	_, err := r.runner.run(ctx, "checkout", name)
	return err
}

func (r *Repo) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.runner.run(ctx, "branch", flag, name)
	return err
}

func (r *Repo) ListBranches(ctx context.Context) ([]string, error) {
	iter, err := r.gogit.Branches()
	if err != nil {
		return nil, fmt.Errorf("%w: list branches: %v", cerrors.ErrGit, err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterate branches: %v", cerrors.ErrGit, err)
	}
	return names, nil
}

func (r *Repo) BranchHead(ctx context.Context, name string) (string, error) {
	ref, err := r.gogit.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return "", cerrors.NewNotFoundError("branch", name)
	}
	return ref.Hash().String(), nil
}
