package manager

import (
	"context"

	"cascade.dev/cascade/internal/integrity"
	"cascade.dev/cascade/internal/stack"
)

// CheckIntegrity implements IntegrityEngine.Detect (spec.md §4.7) for the
// named stack (or the active one): a read-only drift report between a
// stack's recorded metadata and its branches' actual Git state.
func (m *Manager) CheckIntegrity(ctx context.Context, stackName string) ([]integrity.Issue, error) {
	repoMeta, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	s, err := resolveStack(repoMeta, stackName)
	if err != nil {
		return nil, err
	}
	return integrity.New(m.repo).Detect(ctx, s)
}

// RepairIntegrity implements IntegrityEngine.Repair: applies choice to
// resolve issue and persists the resulting stack metadata.
func (m *Manager) RepairIntegrity(ctx context.Context, stackName string, issue integrity.Issue, choice integrity.RepairChoice) error {
	release, err := m.preamble(ctx, false)
	if err != nil {
		return err
	}
	defer release()
	m.snapshotBeforeRiskyOp("integrity-repair")

	_, err = m.store.Mutate(func(repoMeta *stack.RepositoryMetadata) error {
		s, rErr := resolveStack(repoMeta, stackName)
		if rErr != nil {
			return rErr
		}
		if rErr := integrity.New(m.repo).Repair(ctx, s, issue, choice); rErr != nil {
			return rErr
		}
		return s.Validate()
	})
	return err
}

// CheckEnvironment implements the supplemented CheckEnvironment diagnostic
// (spec.md's original_source-derived doctor command).
func (m *Manager) CheckEnvironment(ctx context.Context) []integrity.Diagnostic {
	return integrity.CheckEnvironment(ctx, m.repo)
}
