package manager

import (
	"context"

	"github.com/google/uuid"

	"cascade.dev/cascade/internal/metadata"
	"cascade.dev/cascade/internal/stack"
)

// snapshotBeforeRiskyOp is called at the top of Push/Pop/rebase, cleanup and
// integrity-repair operations.
// Snapshotting failures are logged, not propagated: losing the ability to
// roll back is worse than blocking the operation that would have been
// snapshotted, but spec.md treats this path as best-effort, so we log and
// continue rather than fail the caller's real request.
func (m *Manager) snapshotBeforeRiskyOp(label string) {
	if err := m.store.SaveSnapshot(uuid.NewString(), label); err != nil {
		m.log.Warn("failed to save pre-operation snapshot", "label", label, "error", err)
	}
}

// ListSnapshots returns the retained snapshot history, oldest first.
func (m *Manager) ListSnapshots() ([]metadata.Snapshot, error) {
	return m.store.ListSnapshots()
}

// RestoreSnapshot implements the supplemented restore feature: it replaces
// the current RepositoryMetadata wholesale with a previously captured
// snapshot. It does not touch Git state; branches created or deleted since
// the snapshot was taken are not recreated or restored.
func (m *Manager) RestoreSnapshot(ctx context.Context, id string) (*stack.RepositoryMetadata, error) {
	release, err := m.preamble(ctx, true)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.store.RestoreSnapshot(id)
}
