package manager

import (
	"context"

	"cascade.dev/cascade/internal/cleanup"
	"cascade.dev/cascade/internal/stack"
)

// ScanCleanup implements CleanupEngine.Scan (spec.md §4.10): lists branches
// eligible for deletion across every tracked stack.
func (m *Manager) ScanCleanup(ctx context.Context, opts cleanup.Options) ([]cleanup.Candidate, error) {
	repoMeta, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	current, _, err := m.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	base := m.cfg.GetDefaultBaseBranch()
	engine := cleanup.New(m.repo, m.prov)
	return engine.Scan(ctx, base, current, repoMeta.Stacks, opts)
}

// RunCleanup implements CleanupEngine.Run: deletes the given candidates and
// removes any corresponding stack entries.
func (m *Manager) RunCleanup(ctx context.Context, candidates []cleanup.Candidate, opts cleanup.Options) error {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return err
	}
	defer release()
	if !opts.DryRun {
		m.snapshotBeforeRiskyOp("cleanup")
	}

	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		engine := cleanup.New(m.repo, m.prov)
		return engine.Run(ctx, candidates, repoMeta.Stacks, opts)
	})
	return err
}
