package metadata

import (
	"path/filepath"
	"time"

	"cascade.dev/cascade/internal/atomicstore"
	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/stack"
)

const (
	snapshotsFile = "snapshots.json"
	maxSnapshots  = 20
)

// Snapshot is a point-in-time copy of RepositoryMetadata, taken before a
// risky operation (push, pop, rebase) so it can be restored if that
// operation leaves the stack in a bad state.
type Snapshot struct {
	ID        string                    `json:"id"`
	Label     string                    `json:"label"`
	CreatedAt time.Time                 `json:"created_at"`
	Stacks    map[string]*stack.Stack   `json:"stacks"`
	Commits   map[string]*stack.CommitMetadata `json:"commits"`
	ActiveStackID     string            `json:"active_stack_id,omitempty"`
	DefaultBaseBranch string            `json:"default_base_branch,omitempty"`
}

type snapshotsDoc struct {
	Snapshots []Snapshot `json:"snapshots"`
}

func (s *Store) snapshotsPath() string { return filepath.Join(s.root, dirName, snapshotsFile) }

func (s *Store) loadSnapshots() (snapshotsDoc, error) {
	var doc snapshotsDoc
	if atomicstore.Exists(s.snapshotsPath()) {
		if err := atomicstore.ReadJSON(s.snapshotsPath(), &doc); err != nil {
			return snapshotsDoc{}, err
		}
	}
	return doc, nil
}

// SaveSnapshot captures the current RepositoryMetadata under label, trimming
// the retained history to maxSnapshots (oldest dropped first). Snapshotting
// is best-effort: callers are expected to log a failure and continue rather
// than abort the operation that triggered it.
func (s *Store) SaveSnapshot(id, label string) error {
	m, err := s.Load()
	if err != nil {
		return err
	}

	stacks := make(map[string]*stack.Stack, len(m.Stacks))
	for k, v := range m.Stacks {
		cp := *v
		stacks[k] = &cp
	}
	commits := make(map[string]*stack.CommitMetadata, len(m.Commits))
	for k, v := range m.Commits {
		cp := *v
		commits[k] = &cp
	}

	snap := Snapshot{
		ID:                id,
		Label:             label,
		CreatedAt:         time.Now().UTC(),
		Stacks:            stacks,
		Commits:           commits,
		ActiveStackID:     m.ActiveStackID,
		DefaultBaseBranch: m.DefaultBaseBranch,
	}

	return s.atoms.WithLock(s.snapshotsPath(), func() error {
		doc, err := s.loadSnapshots()
		if err != nil {
			return err
		}
		doc.Snapshots = append(doc.Snapshots, snap)
		if len(doc.Snapshots) > maxSnapshots {
			doc.Snapshots = doc.Snapshots[len(doc.Snapshots)-maxSnapshots:]
		}
		return s.atoms.WriteJSON(s.snapshotsPath(), doc)
	})
}

// ListSnapshots returns all retained snapshots, oldest first.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	doc, err := s.loadSnapshots()
	if err != nil {
		return nil, err
	}
	return doc.Snapshots, nil
}

// RestoreSnapshot overwrites the current RepositoryMetadata with the
// snapshot matching id.
func (s *Store) RestoreSnapshot(id string) (*stack.RepositoryMetadata, error) {
	doc, err := s.loadSnapshots()
	if err != nil {
		return nil, err
	}
	var found *Snapshot
	for i := range doc.Snapshots {
		if doc.Snapshots[i].ID == id {
			found = &doc.Snapshots[i]
			break
		}
	}
	if found == nil {
		return nil, cerrors.NewNotFoundError("snapshot", id)
	}

	m := stack.NewRepositoryMetadata()
	for k, v := range found.Stacks {
		cp := *v
		m.Stacks[k] = &cp
	}
	for k, v := range found.Commits {
		cp := *v
		m.Commits[k] = &cp
	}
	m.ActiveStackID = found.ActiveStackID
	m.DefaultBaseBranch = found.DefaultBaseBranch
	m.RepairConsistency()

	if err := s.Persist(m); err != nil {
		return nil, err
	}
	return m, nil
}
