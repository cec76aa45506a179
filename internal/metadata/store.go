// Package metadata owns RepositoryMetadata and persists it across the two
// files spec.md §4.5 and §6 name: stacks.json and metadata.json under
// <repo>/.cascade/. It follows the teacher's internal/config idiom of a
// plain struct round-tripped through encoding/json, but adds the
// AtomicStore-backed crash-safety spec.md requires.
package metadata

import (
	"fmt"
	"path/filepath"
	"time"

	"cascade.dev/cascade/internal/atomicstore"
	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/stack"
)

const (
	stacksFile   = "stacks.json"
	metadataFile = "metadata.json"
	dirName      = ".cascade"
)

// stacksDoc is the on-disk shape of stacks.json: {<stack_id>: Stack}.
type stacksDoc map[string]*stack.Stack

// metadataDoc is the on-disk shape of metadata.json: RepositoryMetadata
// without the stack bodies (they round-trip through stacksDoc instead).
type metadataDoc struct {
	Commits           map[string]*stack.CommitMetadata `json:"commits"`
	ActiveStackID     string                            `json:"active_stack_id,omitempty"`
	DefaultBaseBranch string                            `json:"default_base_branch,omitempty"`
	EditMode          stack.EditMode                    `json:"edit_mode"`
	UpdatedAt         time.Time                          `json:"updated_at"`
}

// Store owns the on-disk RepositoryMetadata for one repository root.
type Store struct {
	root  string
	atoms *atomicstore.Store
}

// New returns a Store rooted at repoRoot (the directory containing .cascade).
func New(repoRoot string, atoms *atomicstore.Store) *Store {
	return &Store{root: repoRoot, atoms: atoms}
}

func (s *Store) stacksPath() string   { return filepath.Join(s.root, dirName, stacksFile) }
func (s *Store) metadataPath() string { return filepath.Join(s.root, dirName, metadataFile) }

// Load reads both files, reconstructs RepositoryMetadata, runs
// RepairConsistency on every stack, and prunes CommitMetadata whose stack is
// unknown, exactly as spec.md §4.5 specifies. A repository with neither file
// yet is not an error: Load returns a fresh, empty RepositoryMetadata.
func (s *Store) Load() (*stack.RepositoryMetadata, error) {
	m := stack.NewRepositoryMetadata()

	if atomicstore.Exists(s.stacksPath()) {
		var doc stacksDoc
		if err := atomicstore.ReadJSON(s.stacksPath(), &doc); err != nil {
			return nil, err
		}
		for id, st := range doc {
			m.Stacks[id] = st
		}
	}

	if atomicstore.Exists(s.metadataPath()) {
		var doc metadataDoc
		if err := atomicstore.ReadJSON(s.metadataPath(), &doc); err != nil {
			return nil, err
		}
		if doc.Commits != nil {
			m.Commits = doc.Commits
		}
		m.ActiveStackID = doc.ActiveStackID
		m.DefaultBaseBranch = doc.DefaultBaseBranch
		m.EditMode = doc.EditMode
	}

	m.RepairConsistency()
	return m, nil
}

// Persist writes both files through AtomicStore under their locks. On any
// write failure the caller's in-memory state is stale relative to disk; the
// caller must reload via Load before continuing, per spec.md §4.5's rollback
// rule ("the in-memory state is rolled back by reloading from disk").
func (s *Store) Persist(m *stack.RepositoryMetadata) error {
	m.UpdatedAt = time.Now().UTC()

	doc := make(stacksDoc, len(m.Stacks))
	for id, st := range m.Stacks {
		doc[id] = st
	}

	if err := s.atoms.WithLock(s.stacksPath(), func() error {
		return s.atoms.WriteJSON(s.stacksPath(), doc)
	}); err != nil {
		return fmt.Errorf("%w: persist stacks.json: %v", cerrors.ErrIO, err)
	}

	mdoc := metadataDoc{
		Commits:           m.Commits,
		ActiveStackID:     m.ActiveStackID,
		DefaultBaseBranch: m.DefaultBaseBranch,
		EditMode:          m.EditMode,
		UpdatedAt:         m.UpdatedAt,
	}
	if err := s.atoms.WithLock(s.metadataPath(), func() error {
		return s.atoms.WriteJSON(s.metadataPath(), mdoc)
	}); err != nil {
		return fmt.Errorf("%w: persist metadata.json: %v", cerrors.ErrIO, err)
	}
	return nil
}

// Mutate applies fn to a freshly loaded RepositoryMetadata, persists the
// result, and on write failure reloads from disk so the caller never holds
// state that diverges from what is on disk. This is the single entry point
// every higher-level mutator (StackManager, RebaseEngine, IntegrityEngine)
// should use rather than calling Load/Persist directly.
func (s *Store) Mutate(fn func(*stack.RepositoryMetadata) error) (*stack.RepositoryMetadata, error) {
	m, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if err := s.Persist(m); err != nil {
		reloaded, reloadErr := s.Load()
		if reloadErr != nil {
			return nil, fmt.Errorf("%w (reload after failed persist also failed: %v)", err, reloadErr)
		}
		return reloaded, err
	}
	return m, nil
}
