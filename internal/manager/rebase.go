package manager

import (
	"context"

	"cascade.dev/cascade/internal/rebase"
	"cascade.dev/cascade/internal/stack"
	"cascade.dev/cascade/internal/sync"
)

// Rebase implements RebaseEngine.Run (spec.md §4.8) for the named stack (or
// the active one). On success it records each entry's new commit hash and,
// for branch_versioning, its new branch name, then retargets any open PRs
// through the configured Provider. A Provider is optional: without one the
// rebase still completes, it just leaves PRs pointed at the old branches.
func (m *Manager) Rebase(ctx context.Context, stackName, newBase string, strategy rebase.Strategy, interactive rebase.InteractiveCallback) (rebase.Result, error) {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return rebase.Result{}, err
	}
	defer release()
	m.snapshotBeforeRiskyOp("rebase")

	var result rebase.Result
	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		if err := m.checkBranchChange(ctx, repoMeta); err != nil {
			return err
		}
		s, rErr := resolveStack(repoMeta, stackName)
		if rErr != nil {
			return rErr
		}

		engine := rebase.New(m.repo, rebase.WithLogger(m.log))
		var rErr2 error
		result, rErr2 = engine.Run(ctx, s, newBase, strategy, interactive)
		if rErr2 != nil {
			return rErr2
		}
		if result.State != rebase.StateDone {
			return nil // paused or aborted: metadata is left untouched until Continue/Abort resolves it
		}

		for i := range s.Entries {
			entry := &s.Entries[i]
			newHash, ok := result.Mapping[entry.CommitHash]
			if !ok {
				continue
			}
			entry.CommitHash = newHash
			if newBranch, ok := result.NewBranch[entry.ID]; ok {
				entry.Branch = newBranch
			}
		}
		s.BaseBranch = newBase

		// result.NewBranch is keyed by entry ID, so it stays correct even
		// though the loop above has already renamed entry.Branch.
		if m.prov != nil && len(result.NewBranch) > 0 {
			m.syncAfterRebase(ctx, s, result.NewBranch)
		}
		return nil
	})
	return result, err
}

func (m *Manager) syncAfterRebase(ctx context.Context, s *stack.Stack, newBranchByEntryID map[string]string) {
	coord := sync.New(m.repo, m.prov, m.log)
	res := coord.UpdatePRsAfterRebase(ctx, s, newBranchByEntryID)
	for _, f := range res.Failures() {
		m.log.Warn("rebase: failed to retarget PR", "entry", f.EntryID, "error", f.Err)
	}
}

// ContinueRebase implements RebaseEngine.Continue (spec.md §4.8): it returns
// a ValidationError when no rebase is in progress and nil otherwise. It does
// not check for conflicts, stage files, or process the remaining entries.
func (m *Manager) ContinueRebase(ctx context.Context) error {
	release, err := m.preamble(ctx, true)
	if err != nil {
		return err
	}
	defer release()
	return rebase.New(m.repo).Continue(ctx)
}

// AbortRebase implements RebaseEngine.Abort: cancels an in-progress rebase
// and restores the pre-rebase Git state.
func (m *Manager) AbortRebase(ctx context.Context) error {
	release, err := m.preamble(ctx, true)
	if err != nil {
		return err
	}
	defer release()
	return rebase.New(m.repo).Abort(ctx)
}
