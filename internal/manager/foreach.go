package manager

import (
	"context"
	"errors"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/stack"
)

// ErrStopForEach is returned by a ForEachEntry callback to stop the
// traversal early without surfacing an error to the caller.
var ErrStopForEach = errors.New("cascade: stop foreach traversal")

// ForEachFunc is invoked once per entry during a ForEachEntry traversal.
// Returning ErrStopForEach ends the traversal early with a nil error;
// any other non-nil error aborts the traversal and is returned as-is.
type ForEachFunc func(ctx context.Context, entry stack.Entry) error

// ForEachEntry walks a stack's entries, bottom-up (base-to-tip) by default
// or top-down when topDown is true, invoking fn for each. It is read-only:
// entries are snapshotted before the callback runs, so fn mutating the
// stack through other Manager calls is safe but its effects are not
// reflected mid-walk.
func (m *Manager) ForEachEntry(ctx context.Context, stackName string, topDown bool, fn ForEachFunc) error {
	repoMeta, err := m.store.Load()
	if err != nil {
		return err
	}

	s, err := resolveStack(repoMeta, stackName)
	if err != nil {
		return err
	}

	entries := make([]stack.Entry, len(s.Entries))
	copy(entries, s.Entries)
	if topDown {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	for _, e := range entries {
		if err := fn(ctx, e); err != nil {
			if err == ErrStopForEach {
				return nil
			}
			return err
		}
	}
	return nil
}

// LoadStack returns the named stack (or the active one, if name is empty)
// as currently persisted, for read-only rendering by the CLI collaborator.
func (m *Manager) LoadStack(stackName string) (*stack.Stack, error) {
	repoMeta, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	return resolveStack(repoMeta, stackName)
}

// resolveStack finds a stack by name, or the active stack when name is empty.
func resolveStack(repoMeta *stack.RepositoryMetadata, name string) (*stack.Stack, error) {
	if name == "" {
		if repoMeta.ActiveStackID == "" {
			return nil, cerrors.NewValidationError("no active stack; specify a stack name")
		}
		return repoMeta.Stacks[repoMeta.ActiveStackID], nil
	}
	for _, s := range repoMeta.Stacks {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, cerrors.NewNotFoundError("stack", name)
}
