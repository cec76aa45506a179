package manager

import (
	"context"
	"fmt"
	"os/user"
	"time"

	"cascade.dev/cascade/internal/branchname"
	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/stack"
)

// PushSelector picks the commit set for Push; exactly one field should be set.
type PushSelector struct {
	Commits []string // explicit, comma-separated hashes already split by the caller
	Since   string   // commits reachable from HEAD but not from Since
	All     bool     // commits on HEAD not yet tracked by any entry in the active stack
}

// resolve expands the selector into an ordered (oldest-first) commit hash list.
func (sel PushSelector) resolve(ctx context.Context, repo gitrepo.GitRepo, tracked map[string]bool) ([]string, error) {
	switch {
	case len(sel.Commits) > 0:
		return sel.Commits, nil
	case sel.Since != "":
		commits, err := repo.CommitsBetween(ctx, sel.Since, "HEAD")
		if err != nil {
			return nil, err
		}
		hashes := make([]string, len(commits))
		for i, c := range commits {
			hashes[i] = c.Hash
		}
		return hashes, nil
	case sel.All:
		head, err := repo.HeadCommit(ctx)
		if err != nil {
			return nil, err
		}
		commits, err := repo.CommitsBetween(ctx, "", head)
		if err != nil {
			return nil, err
		}
		var hashes []string
		for _, c := range commits {
			if !tracked[c.Hash] {
				hashes = append(hashes, c.Hash)
			}
		}
		return hashes, nil
	default:
		head, err := repo.HeadCommit(ctx)
		if err != nil {
			return nil, err
		}
		return []string{head}, nil
	}
}

// Push implements spec.md §4.6.2. branchArg names the branch for the first
// pushed commit only; subsequent commits always get a generated name.
func (m *Manager) Push(ctx context.Context, branchArg, messageOverride string, selector PushSelector) ([]string, error) {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()
	m.snapshotBeforeRiskyOp("push")

	var entryIDs []string
	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		if err := m.checkBranchChange(ctx, repoMeta); err != nil {
			return err
		}

		if repoMeta.ActiveStackID == "" {
			return cerrors.NewValidationError("no active stack; run create_stack first")
		}
		s := repoMeta.Stacks[repoMeta.ActiveStackID]

		tracked := make(map[string]bool, len(s.Entries))
		for _, e := range s.Entries {
			tracked[e.CommitHash] = true
		}

		hashes, err := selector.resolve(ctx, m.repo, tracked)
		if err != nil {
			return err
		}
		if len(hashes) == 0 {
			return cerrors.NewValidationError("no commits selected to push")
		}

		if repoMeta.EditMode.IsActive && repoMeta.EditMode.StackID == s.ID {
			return m.pushAsAmendment(ctx, s, repoMeta, hashes[len(hashes)-1])
		}

		for i, hash := range hashes {
			if len(s.Entries) > 0 {
				if _, err := s.ValidateGit(ctx, m.repo); err != nil {
					return err
				}
			}

			commit, err := m.repo.GetCommit(ctx, hash)
			if err != nil {
				return err
			}
			message := commit.Message
			if messageOverride != "" && i == len(hashes)-1 {
				message = messageOverride
			}

			for _, e := range s.Entries {
				if e.Message == message {
					return cerrors.NewValidationError(
						fmt.Sprintf("commit message %q is already used by an entry in this stack", message),
						"amend the new commit with a distinct message",
						"split this commit out before pushing",
						"use --message to override the cached message",
					)
				}
			}

			if len(s.Entries) == 0 {
				current, ok, err := m.repo.CurrentBranch(ctx)
				if err != nil {
					return err
				}
				if ok && current != s.BaseBranch && looksLikeFeatureBranch(current) {
					s.BaseBranch = current
				}
			}

			var branch string
			if i == 0 && branchArg != "" {
				branch = branchArg
			} else {
				base := m.generateBranchName(message)
				branch = branchname.Uniquify(base, func(candidate string) bool {
					return s.EntryMap[candidate] != nil || stackHasBranch(s, candidate)
				})
			}

			exists, err := m.repo.BranchExists(ctx, branch)
			if err != nil {
				return err
			}
			if !exists {
				if err := m.repo.CreateBranch(ctx, branch, hash); err != nil {
					return err
				}
			}

			id := s.PushEntry(branch, hash, message)
			entryIDs = append(entryIDs, id)
			repoMeta.Commits[hash] = &stack.CommitMetadata{
				CommitHash: hash,
				EntryID:    id,
				StackID:    s.ID,
				Branch:     branch,
				CreatedAt:  time.Now().UTC(),
				UpdatedAt:  time.Now().UTC(),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entryIDs, nil
}

func (m *Manager) generateBranchName(message string) string {
	pattern := m.cfg.GetBranchNamePattern()
	if pattern == "" {
		return branchname.Slug(message)
	}
	date := time.Now().UTC().Format("20060102150405")
	return branchname.ProcessPattern(pattern, currentUsername(), date, message)
}

// currentUsername feeds the {username} placeholder in branch-name patterns.
// It falls back to "unknown" rather than failing the push.
func currentUsername() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

func stackHasBranch(s *stack.Stack, name string) bool {
	for _, e := range s.Entries {
		if e.Branch == name {
			return true
		}
	}
	return false
}

// pushAsAmendment implements the edit-mode half of spec.md §4.6.5: while
// editing, push updates the target entry's commit_hash in place instead of
// appending a new entry.
func (m *Manager) pushAsAmendment(ctx context.Context, s *stack.Stack, repoMeta *stack.RepositoryMetadata, newHash string) error {
	target, ok := s.EntryMap[repoMeta.EditMode.TargetEntryID]
	if !ok {
		return cerrors.NewNotFoundError("entry", repoMeta.EditMode.TargetEntryID)
	}
	target.CommitHash = newHash
	target.UpdatedAt = time.Now().UTC()
	s.RepairConsistency()
	return s.Validate()
}
