package manager

import (
	"context"
	"time"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/stack"
)

// EnterEditMode implements spec.md §4.6.5: checks out the target entry's
// branch and records edit-mode state so that the next Push amends the entry
// in place instead of appending a new one.
func (m *Manager) EnterEditMode(ctx context.Context, entryID string) error {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		if repoMeta.EditMode.IsActive {
			return cerrors.NewValidationError(
				"edit mode is already active",
				"run exit_edit_mode before entering edit mode again",
			)
		}
		if repoMeta.ActiveStackID == "" {
			return cerrors.NewValidationError("no active stack; run create_stack first")
		}
		s := repoMeta.Stacks[repoMeta.ActiveStackID]

		entry, ok := s.EntryMap[entryID]
		if !ok {
			return cerrors.NewNotFoundError("entry", entryID)
		}

		if err := m.repo.Checkout(ctx, entry.Branch); err != nil {
			return err
		}

		repoMeta.EditMode = stack.EditMode{
			StackID:            s.ID,
			TargetEntryID:      entry.ID,
			OriginalCommitHash: entry.CommitHash,
			StartedAt:          time.Now().UTC(),
			IsActive:           true,
		}
		return nil
	})
	return err
}

// ExitEditMode implements spec.md §4.6.5: clears edit-mode state. It does
// not validate that the entry was actually amended; an unchanged entry just
// leaves the stack as it was.
func (m *Manager) ExitEditMode(ctx context.Context) error {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		if !repoMeta.EditMode.IsActive {
			return cerrors.NewValidationError("edit mode is not active")
		}
		repoMeta.EditMode = stack.EditMode{}
		return nil
	})
	return err
}
