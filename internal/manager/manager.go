// Package manager implements StackManager (spec.md §4.6), the single
// orchestration entry point for cascade's core: it mutates StackModel
// entities through MetadataStore, drives GitRepo for Git-touching steps,
// and enforces the preamble every public mutating operation shares
// (.cascade directory lock, in-progress-rebase check, branch-change
// detection).
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"cascade.dev/cascade/internal/atomicstore"
	"cascade.dev/cascade/internal/cascadeconfig"
	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/metadata"
	"cascade.dev/cascade/internal/provider"
	"cascade.dev/cascade/internal/stack"
)

// BranchChangeChoice is the user's answer to a detected branch change,
// spec.md §4.6.4: "keep active on new branch / deactivate / switch stack / cancel".
type BranchChangeChoice int

const (
	ChoiceCancel BranchChangeChoice = iota
	ChoiceKeepActiveOnNewBranch
	ChoiceDeactivate
	ChoiceSwitchStack
)

// BranchChangeOptions describes the detected drift to the injected callback.
type BranchChangeOptions struct {
	StackName     string
	RecordedBranch string
	CurrentBranch string
}

// BranchChangeCallback is injected by the CLI collaborator; the core never
// guesses, per spec.md §4.6.4.
type BranchChangeCallback func(ctx context.Context, opts BranchChangeOptions) (BranchChangeChoice, error)

// Manager is StackManager. One Manager is scoped to one repository; it
// holds no package-level state.
type Manager struct {
	root      string
	repo      gitrepo.GitRepo
	store     *metadata.Store
	atoms     *atomicstore.Store
	cfg       *cascadeconfig.Config
	log       *slog.Logger
	prov      provider.Provider
	onBranchChange BranchChangeCallback
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithLogger overrides the default slog.Default().
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithBranchChangeCallback installs the §4.6.4 interactive callback. If
// unset, a detected branch change makes the operation fail with a
// ValidationError rather than silently guessing.
func WithBranchChangeCallback(cb BranchChangeCallback) Option {
	return func(m *Manager) { m.onBranchChange = cb }
}

// WithProvider installs the Provider that Submit/Status/Autoland use. If
// unset, those operations fail with a ValidationError rather than a nil
// pointer panic.
func WithProvider(p provider.Provider) Option {
	return func(m *Manager) { m.prov = p }
}

// New builds a Manager rooted at repoRoot.
func New(repoRoot string, repo gitrepo.GitRepo, cfg *cascadeconfig.Config, opts ...Option) *Manager {
	m := &Manager{
		root:  repoRoot,
		repo:  repo,
		store: metadata.New(repoRoot, atomicstore.NewFromEnv(cascadeconfig.AggressiveLocking())),
		atoms: atomicstore.NewFromEnv(cascadeconfig.AggressiveLocking()),
		cfg:   cfg,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) sentinelLockPath() string {
	return filepath.Join(m.root, ".cascade", ".lock")
}

// preamble acquires the .cascade directory lock, checks for an in-progress
// rebase (unless allowDuringRebase is set, for continue_rebase/abort_rebase),
// and returns a release function the caller must defer.
func (m *Manager) preamble(ctx context.Context, allowDuringRebase bool) (func(), error) {
	lock, err := m.atoms.AcquireLock(m.sentinelLockPath())
	if err != nil {
		return nil, err
	}
	release := func() { _ = lock.Release() }

	if !allowDuringRebase {
		inProgress, err := m.repo.IsRebaseInProgress(ctx)
		if err != nil {
			release()
			return nil, err
		}
		if inProgress {
			release()
			return nil, cerrors.NewValidationError(
				"a rebase is already in progress",
				"run `continue` to resume it",
				"run `abort` to cancel it",
			)
		}
	}
	return release, nil
}

// checkBranchChange implements spec.md §4.6.4 for the active stack, if any.
func (m *Manager) checkBranchChange(ctx context.Context, repoMeta *stack.RepositoryMetadata) error {
	if repoMeta.ActiveStackID == "" {
		return nil
	}
	active, ok := repoMeta.Stacks[repoMeta.ActiveStackID]
	if !ok || active.CurrentBranch == "" {
		return nil
	}

	current, _, err := m.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current == active.CurrentBranch {
		return nil
	}

	if m.onBranchChange == nil {
		return cerrors.NewValidationError(
			fmt.Sprintf("current branch %q no longer matches active stack %q's recorded branch %q", current, active.Name, active.CurrentBranch),
			"pass a branch-change callback to Manager to resolve this interactively",
		)
	}

	choice, err := m.onBranchChange(ctx, BranchChangeOptions{
		StackName:      active.Name,
		RecordedBranch: active.CurrentBranch,
		CurrentBranch:  current,
	})
	if err != nil {
		return err
	}

	switch choice {
	case ChoiceKeepActiveOnNewBranch:
		active.CurrentBranch = current
		return nil
	case ChoiceDeactivate:
		active.IsActive = false
		repoMeta.ActiveStackID = ""
		return nil
	case ChoiceSwitchStack:
		return nil // the operation's own logic selects the new target stack
	default:
		return cerrors.NewValidationError("operation cancelled: branch change not resolved")
	}
}
