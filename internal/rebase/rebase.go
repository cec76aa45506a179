// Package rebase implements RebaseEngine (spec.md §4.8): re-parenting a
// stack's entries onto a new base commit. It is grounded on the teacher's
// internal/git/rebase.go (detached-HEAD cherry-pick loop, conflict
// detection via IsRebaseInProgress) but replaces the teacher's destructive
// `git rebase --onto` with a non-destructive default: branch_versioning
// creates `-vN` suffixed branches instead of rewriting the originals, so an
// aborted rebase never leaves a stack entry pointing at a dangling commit.
package rebase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/stack"
)

var baseBranchName = regexp.MustCompile(`-v\d+$`)

// Strategy selects how entries are re-parented.
type Strategy string

const (
	StrategyBranchVersioning Strategy = "branch_versioning" // default, non-destructive
	StrategyCherryPick       Strategy = "cherry_pick"        // rewrites the original branches in place
	StrategyThreeWayMerge    Strategy = "three_way_merge"
	StrategyInteractive      Strategy = "interactive"
)

// State is the RebaseEngine state machine: Idle -> Running -> {Done, Paused, Aborted}.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StatePaused  State = "paused" // blocked on a conflict
	StateAborted State = "aborted"
)

// InteractiveAction is the per-commit decision an Interactive strategy callback returns.
type InteractiveAction string

const (
	ActionPick         InteractiveAction = "pick"
	ActionSkip         InteractiveAction = "skip"
	ActionEditMessage  InteractiveAction = "edit-message"
	ActionQuit         InteractiveAction = "quit"
)

// InteractiveCallback lets the CLI collaborator drive an Interactive rebase
// one commit at a time; the core never prompts directly.
type InteractiveCallback func(ctx context.Context, entry stack.Entry) (InteractiveAction, string, error)

// Result is the outcome of a Run call.
type Result struct {
	Success   bool
	State     State
	Mapping   map[string]string // old commit hash -> new commit hash
	NewBranch map[string]string // entry ID -> new branch name (branch_versioning only)
	Conflicts []gitrepo.Conflict
	Summary   string
}

// Engine drives one rebase of one stack onto a new base.
type Engine struct {
	repo gitrepo.GitRepo
	log  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for warn-and-continue diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns a rebase Engine bound to repo.
func New(repo gitrepo.GitRepo, opts ...Option) *Engine {
	e := &Engine{repo: repo, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// nextVersion returns targetBranch's first unused "-vN" suffix, N >= 2,
// probed against the repo so a rebase never collides with a -vN branch a
// previous rebase already created.
func (e *Engine) nextVersion(ctx context.Context, branch string) (string, error) {
	base := baseBranchName.ReplaceAllString(branch, "")
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-v%d", base, n)
		exists, err := e.repo.BranchExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// fastForwardBase best-effort updates base to its upstream tip before a
// branch_versioning rebase builds on it. Any failure (no remote, no
// upstream, network error, base has local commits the upstream lacks) is
// logged and swallowed: the rebase proceeds against whatever base already
// points at.
func (e *Engine) fastForwardBase(ctx context.Context, base string) {
	if err := e.repo.Fetch(ctx, "origin"); err != nil {
		e.log.Warn("rebase: fetch failed, rebasing onto local base", "base", base, "error", err)
		return
	}
	remote, remoteBranch, ok, err := e.repo.UpstreamOf(ctx, base)
	if err != nil || !ok {
		return
	}
	upstream := remote + "/" + remoteBranch
	ahead, _, err := e.repo.AheadBehind(ctx, base, upstream)
	if err != nil {
		e.log.Warn("rebase: could not compare base to upstream", "base", base, "upstream", upstream, "error", err)
		return
	}
	if ahead != 0 {
		e.log.Warn("rebase: base has local commits not on upstream, skipping fast-forward", "base", base, "upstream", upstream)
		return
	}
	if err := e.repo.ResetBranchTo(ctx, base, upstream); err != nil {
		e.log.Warn("rebase: fast-forward of base failed", "base", base, "upstream", upstream, "error", err)
	}
}

// Run re-parents every entry of s onto newBase using strategy, oldest entry
// first. On the first conflict it stops and returns a Paused result; the
// caller resolves the conflict out of band (edits, `git add`) and calls
// Continue, or calls Abort to roll back.
func (e *Engine) Run(ctx context.Context, s *stack.Stack, newBase string, strategy Strategy, interactive InteractiveCallback) (Result, error) {
	result := Result{
		Mapping:   map[string]string{},
		NewBranch: map[string]string{},
		State:     StateRunning,
	}

	if strategy == StrategyBranchVersioning {
		if err := e.repo.Checkout(ctx, newBase); err != nil {
			return result, err
		}
		e.fastForwardBase(ctx, newBase)
	}

	parentCommit := newBase

	for _, entry := range s.Entries {
		if strategy == StrategyInteractive && interactive != nil {
			action, newMessage, err := interactive(ctx, entry)
			if err != nil {
				return result, err
			}
			switch action {
			case ActionSkip:
				continue
			case ActionQuit:
				result.State = StateAborted
				result.Summary = "interactive rebase quit by caller"
				return result, nil
			case ActionEditMessage:
				entry.Message = newMessage
			}
		}

		targetBranch := entry.Branch
		if strategy == StrategyBranchVersioning {
			var vErr error
			targetBranch, vErr = e.nextVersion(ctx, entry.Branch)
			if vErr != nil {
				return result, vErr
			}
			if err := e.repo.CreateBranch(ctx, targetBranch, parentCommit); err != nil {
				return result, err
			}
			if err := e.repo.Checkout(ctx, targetBranch); err != nil {
				return result, err
			}
		} else {
			if err := e.repo.ResetBranchTo(ctx, entry.Branch, parentCommit); err != nil {
				return result, err
			}
			if err := e.repo.Checkout(ctx, entry.Branch); err != nil {
				return result, err
			}
		}

		newHash, err := e.repo.CherryPick(ctx, entry.CommitHash)
		if err != nil {
			var conflictErr *cerrors.ConflictError
			if isConflict(err, &conflictErr) {
				conflicts, cErr := e.repo.ConflictedFiles(ctx)
				if cErr != nil {
					return result, cErr
				}
				result.State = StatePaused
				result.Conflicts = []gitrepo.Conflict{{Files: filesFrom(conflicts)}}
				result.Summary = fmt.Sprintf("conflict cherry-picking %s onto %s", entry.CommitHash, targetBranch)
				return result, nil
			}
			return result, err
		}

		result.Mapping[entry.CommitHash] = newHash
		result.NewBranch[entry.ID] = targetBranch
		parentCommit = newHash
	}

	result.State = StateDone
	result.Success = true
	result.Summary = fmt.Sprintf("rebased %d entries onto %s", len(result.Mapping), newBase)
	return result, nil
}

func filesFrom(files []string) []string { return files }

func isConflict(err error, target **cerrors.ConflictError) bool {
	ce, ok := err.(*cerrors.ConflictError)
	if ok {
		*target = ce
	}
	return ok
}

// Continue reports whether a rebase is in progress: it returns a
// ValidationError when none is, and nil otherwise. It does not check for
// unresolved conflicts, stage files, or cherry-pick the remaining entries.
func (e *Engine) Continue(ctx context.Context) error {
	inProgress, err := e.repo.IsRebaseInProgress(ctx)
	if err != nil {
		return err
	}
	if !inProgress {
		return cerrors.NewValidationError("no rebase is in progress")
	}
	return nil
}

// Abort cancels an in-progress rebase, restoring the pre-rebase state.
func (e *Engine) Abort(ctx context.Context) error {
	return e.repo.AbortRebase(ctx)
}
