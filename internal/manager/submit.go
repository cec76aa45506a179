package manager

import (
	"context"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/provider"
	"cascade.dev/cascade/internal/stack"
	"cascade.dev/cascade/internal/sync"
)

// mergeStrategyFrom maps a CLI flag value to a provider.MergeStrategy,
// defaulting to a squash merge when the value is unrecognized or empty.
func mergeStrategyFrom(s string) provider.MergeStrategy {
	switch provider.MergeStrategy(s) {
	case provider.StrategyMerge, provider.StrategyFastForward, provider.StrategySquashFastForward:
		return provider.MergeStrategy(s)
	default:
		return provider.StrategySquash
	}
}

// Submit implements SyncCoordinator.Submit (spec.md §4.9): push every given
// entry's branch and open a new PR for it, in stack order. entryIDs
// empty means every entry in the stack.
func (m *Manager) Submit(ctx context.Context, stackName string, entryIDs []string, title, description string, draft bool) (sync.SubmitResult, error) {
	if m.prov == nil {
		return sync.SubmitResult{}, cerrors.NewValidationError("no provider configured", "set `provider` in .cascade/config.json")
	}
	release, err := m.preamble(ctx, false)
	if err != nil {
		return sync.SubmitResult{}, err
	}
	defer release()

	var result sync.SubmitResult
	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		if err := m.checkBranchChange(ctx, repoMeta); err != nil {
			return err
		}
		s, rErr := resolveStack(repoMeta, stackName)
		if rErr != nil {
			return rErr
		}

		ids := entryIDs
		if len(ids) == 0 {
			for _, e := range s.Entries {
				ids = append(ids, e.ID)
			}
		}

		coord := sync.New(m.repo, m.prov, m.log)
		result = coord.Submit(ctx, s, ids, title, description, draft)
		return nil
	})
	return result, err
}

// Status implements SyncCoordinator.Status: the current PR state of every
// submitted entry in a stack.
func (m *Manager) Status(ctx context.Context, stackName string) (sync.StackStatus, error) {
	if m.prov == nil {
		return sync.StackStatus{}, cerrors.NewValidationError("no provider configured", "set `provider` in .cascade/config.json")
	}
	repoMeta, err := m.store.Load()
	if err != nil {
		return sync.StackStatus{}, err
	}
	s, err := resolveStack(repoMeta, stackName)
	if err != nil {
		return sync.StackStatus{}, err
	}
	coord := sync.New(m.repo, m.prov, m.log)
	return coord.Status(ctx, s)
}

// Autoland implements SyncCoordinator.Autoland: merge a stack's PRs
// bottom-up while each is open and green; mergeability is not checked.
func (m *Manager) Autoland(ctx context.Context, stackName string, strategy string) (sync.SubmitResult, error) {
	if m.prov == nil {
		return sync.SubmitResult{}, cerrors.NewValidationError("no provider configured", "set `provider` in .cascade/config.json")
	}
	release, err := m.preamble(ctx, false)
	if err != nil {
		return sync.SubmitResult{}, err
	}
	defer release()

	var result sync.SubmitResult
	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		s, rErr := resolveStack(repoMeta, stackName)
		if rErr != nil {
			return rErr
		}
		coord := sync.New(m.repo, m.prov, m.log)
		result = coord.Autoland(ctx, s, mergeStrategyFrom(strategy))
		return nil
	})
	return result, err
}
