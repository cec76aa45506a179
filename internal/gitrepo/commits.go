package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"cascade.dev/cascade/internal/cerrors"
)

func (r *Repo) CommitExists(ctx context.Context, hash string) (bool, error) {
	_, err := r.gogit.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: lookup commit %s: %v", cerrors.ErrGit, hash, err)
	}
	return true, nil
}

func (r *Repo) GetCommit(ctx context.Context, hash string) (Commit, error) {
	c, err := r.gogit.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return Commit{}, cerrors.NewNotFoundError("commit", hash)
	}
	return toCommit(c), nil
}

func toCommit(c *object.Commit) Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}
	return Commit{
		Hash:      c.Hash.String(),
		Message:   strings.TrimRight(c.Message, "\n"),
		Author:    c.Author.Name,
		When:      c.Author.When,
		ParentIDs: parents,
	}
}

// CommitsBetween returns commits reachable from "to" but not from "from",
// oldest first — the chronological order spec.md §4.6.2's "since <ref>"
// selector requires.
func (r *Repo) CommitsBetween(ctx context.Context, from, to string) ([]Commit, error) {
	toHash, err := r.resolve(to)
	if err != nil {
		return nil, err
	}
	var fromHash *plumbing.Hash
	if from != "" {
		h, err := r.resolve(from)
		if err != nil {
			return nil, err
		}
		fromHash = &h
	}

	excluded := make(map[plumbing.Hash]bool)
	if fromHash != nil {
		if err := r.collectAncestors(*fromHash, excluded); err != nil {
			return nil, err
		}
	}

	var ordered []Commit
	seen := make(map[plumbing.Hash]bool)
	var walk func(h plumbing.Hash) error
	walk = func(h plumbing.Hash) error {
		if seen[h] || excluded[h] {
			return nil
		}
		seen[h] = true
		c, err := r.gogit.CommitObject(h)
		if err != nil {
			return fmt.Errorf("%w: walk commit %s: %v", cerrors.ErrGit, h, err)
		}
		for _, p := range c.ParentHashes {
			if err := walk(p); err != nil {
				return err
			}
		}
		ordered = append(ordered, toCommit(c))
		return nil
	}
	if err := walk(toHash); err != nil {
		return nil, err
	}
	return ordered, nil
}

func (r *Repo) collectAncestors(h plumbing.Hash, into map[plumbing.Hash]bool) error {
	if into[h] {
		return nil
	}
	into[h] = true
	c, err := r.gogit.CommitObject(h)
	if err != nil {
		return fmt.Errorf("%w: walk ancestor %s: %v", cerrors.ErrGit, h, err)
	}
	for _, p := range c.ParentHashes {
		if err := r.collectAncestors(p, into); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) resolve(ref string) (plumbing.Hash, error) {
	h, err := r.gogit.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, cerrors.NewNotFoundError("ref", ref)
	}
	return *h, nil
}
