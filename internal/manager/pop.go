package manager

import (
	"context"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/stack"
)

// Pop implements spec.md §4.6.3: remove the topmost entry of the active
// stack. If the entry's branch is not the repository's current branch, the
// branch is deleted too; other entries' references to it are not checked.
func (m *Manager) Pop(ctx context.Context) (stack.Entry, error) {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return stack.Entry{}, err
	}
	defer release()
	m.snapshotBeforeRiskyOp("pop")

	var popped stack.Entry
	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		if err := m.checkBranchChange(ctx, repoMeta); err != nil {
			return err
		}

		if repoMeta.ActiveStackID == "" {
			return cerrors.NewValidationError("no active stack; run create_stack first")
		}
		s := repoMeta.Stacks[repoMeta.ActiveStackID]

		if repoMeta.EditMode.IsActive && repoMeta.EditMode.StackID == s.ID {
			return cerrors.NewValidationError(
				"cannot pop while edit mode is active",
				"run exit_edit_mode first",
			)
		}

		entry, ok := s.PopEntry()
		if !ok {
			return cerrors.NewValidationError("stack has no entries to pop")
		}

		current, hasCurrent, err := m.repo.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		if !hasCurrent || current != entry.Branch {
			exists, err := m.repo.BranchExists(ctx, entry.Branch)
			if err != nil {
				return err
			}
			if exists {
				if err := m.repo.DeleteBranch(ctx, entry.Branch, true); err != nil {
					m.log.Warn("pop: failed to delete branch, leaving it in place",
						"branch", entry.Branch, "error", err)
				}
			}
		}

		delete(repoMeta.Commits, entry.CommitHash)
		if s.WorkingBranch == entry.Branch {
			s.WorkingBranch = ""
		}
		if s.CurrentBranch == entry.Branch {
			s.CurrentBranch = ""
		}

		popped = entry
		return nil
	})
	if err != nil {
		return stack.Entry{}, err
	}
	return popped, nil
}
