package manager

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/stack"
)

// CreateStack implements spec.md §4.6.1.
func (m *Manager) CreateStack(ctx context.Context, name, baseBranch, description string) (*stack.Stack, error) {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *stack.Stack
	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		for _, s := range repoMeta.Stacks {
			if s.Name == name {
				return cerrors.NewValidationError(fmt.Sprintf("a stack named %q already exists", name))
			}
		}

		resolvedBase, err := m.resolveBaseBranch(ctx, baseBranch, repoMeta)
		if err != nil {
			return err
		}

		exists, err := m.repo.BranchExists(ctx, resolvedBase)
		if err != nil {
			return err
		}
		if !exists {
			_ = m.repo.Fetch(ctx, "origin") // best-effort; remote branch may still resolve after
			exists, err = m.repo.BranchExists(ctx, resolvedBase)
			if err != nil {
				return err
			}
		}
		if !exists {
			return cerrors.NewValidationError(fmt.Sprintf("base branch %q does not exist locally or on the remote", resolvedBase))
		}

		s := stack.NewStack(uuid.NewString(), name, resolvedBase, description)

		current, ok, err := m.repo.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		if ok && current != resolvedBase && looksLikeFeatureBranch(current) {
			s.WorkingBranch = current
			s.CurrentBranch = current
		}

		for _, other := range repoMeta.Stacks {
			other.IsActive = false
		}
		s.IsActive = true
		repoMeta.Stacks[s.ID] = s
		repoMeta.ActiveStackID = s.ID

		created = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveBaseBranch implements the argument/repo-default/main/master/HEAD
// fallback chain of spec.md §4.6.1.
func (m *Manager) resolveBaseBranch(ctx context.Context, argument string, repoMeta *stack.RepositoryMetadata) (string, error) {
	if argument != "" {
		return argument, nil
	}
	if m.cfg.GetDefaultBaseBranch() != "" {
		return m.cfg.GetDefaultBaseBranch(), nil
	}
	if repoMeta.DefaultBaseBranch != "" {
		return repoMeta.DefaultBaseBranch, nil
	}
	for _, candidate := range []string{"main", "master"} {
		exists, err := m.repo.BranchExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}
	return "HEAD", nil
}

// looksLikeFeatureBranch is a conservative heuristic: anything that is not
// one of the well-known trunk names.
func looksLikeFeatureBranch(branch string) bool {
	switch branch {
	case "main", "master", "develop", "staging", "release", "production", "HEAD":
		return false
	}
	return branch != ""
}
