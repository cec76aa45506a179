// Package cleanup implements CleanupEngine (spec.md §4.10): classifying and
// deleting local branches that a stacked workflow leaves behind. Grounded
// on the teacher's internal/actions/clean_branches.go (protected-branch
// exclusion set, dry-run support, "log don't auto-delete empty stack"
// behavior).
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/provider"
	"cascade.dev/cascade/internal/stack"
)

// Classification is why a branch was selected for cleanup.
type Classification string

const (
	FullyMerged      Classification = "fully_merged"
	StackEntryMerged Classification = "stack_entry_merged"
	Stale            Classification = "stale"
	Orphaned         Classification = "orphaned"
)

var protectedBranches = map[string]bool{
	"main": true, "master": true, "develop": true,
	"staging": true, "release": true, "production": true,
}

// Candidate is one branch CleanupEngine proposes to delete.
type Candidate struct {
	Kind           Classification
	BranchName     string
	EntryID        string // set when the branch corresponds to a stack entry
	StackID        string
	ForceDelete    bool
}

// Options configures a Scan/Run pass.
type Options struct {
	StaleDays       int // default 30
	IncludeOrphaned bool
	DryRun          bool
}

// Engine scans and deletes branches that no longer serve any stack.
type Engine struct {
	repo gitrepo.GitRepo
	prov provider.Provider
}

// New returns a cleanup Engine. prov may be nil: StackEntryMerged
// classification is then skipped (no way to check PR status).
func New(repo gitrepo.GitRepo, prov provider.Provider) *Engine {
	return &Engine{repo: repo, prov: prov}
}

// Scan classifies every local branch except currentBranch and the
// protected set, against baseBranch and the known stacks.
func (e *Engine) Scan(ctx context.Context, baseBranch, currentBranch string, stacks map[string]*stack.Stack, opts Options) ([]Candidate, error) {
	if opts.StaleDays <= 0 {
		opts.StaleDays = 30
	}

	branches, err := e.repo.ListBranches(ctx)
	if err != nil {
		return nil, err
	}

	entryByBranch := map[string]struct {
		entryID, stackID string
		entry            stack.Entry
	}{}
	for _, s := range stacks {
		for _, entry := range s.Entries {
			entryByBranch[entry.Branch] = struct {
				entryID, stackID string
				entry            stack.Entry
			}{entry.ID, s.ID, entry}
		}
	}

	var candidates []Candidate
	for _, branch := range branches {
		if branch == currentBranch || branch == baseBranch || protectedBranches[branch] {
			continue
		}

		if info, tracked := entryByBranch[branch]; tracked {
			if info.entry.IsSubmitted && e.prov != nil && info.entry.PullRequestID != "" {
				pr, err := e.prov.GetPR(ctx, info.entry.PullRequestID)
				if err == nil && pr.Status == provider.StatusMerged {
					candidates = append(candidates, Candidate{
						Kind: StackEntryMerged, BranchName: branch,
						EntryID: info.entryID, StackID: info.stackID,
					})
					continue
				}
			}
			continue // tracked but not known-merged: leave it alone
		}

		commits, err := e.repo.CommitsBetween(ctx, baseBranch, branch)
		if err != nil {
			continue
		}
		if len(commits) == 0 {
			candidates = append(candidates, Candidate{Kind: FullyMerged, BranchName: branch})
			continue
		}

		head, err := e.repo.BranchHead(ctx, branch)
		if err != nil {
			continue
		}
		commit, err := e.repo.GetCommit(ctx, head)
		if err != nil {
			continue
		}

		if isStale(commit.When, opts.StaleDays) {
			candidates = append(candidates, Candidate{Kind: Stale, BranchName: branch, ForceDelete: true})
			continue
		}

		if opts.IncludeOrphaned {
			candidates = append(candidates, Candidate{Kind: Orphaned, BranchName: branch, ForceDelete: true})
		}
	}
	return candidates, nil
}

// Run deletes every candidate (ordinary delete for FullyMerged/StackEntryMerged,
// force delete for Stale/Orphaned), removing matching stack entries from
// their stack in memory. The caller persists the mutated stacks. DryRun
// candidates are classified but never deleted.
func (e *Engine) Run(ctx context.Context, candidates []Candidate, stacks map[string]*stack.Stack, opts Options) error {
	for _, c := range candidates {
		if opts.DryRun {
			continue
		}

		force := c.ForceDelete || c.Kind == Stale || c.Kind == Orphaned
		if err := e.repo.DeleteBranch(ctx, c.BranchName, force); err != nil {
			return err
		}

		if c.StackID == "" {
			continue
		}
		s, ok := stacks[c.StackID]
		if !ok {
			continue
		}
		removeEntry(s, c.EntryID)
		if len(s.Entries) == 0 {
			slog.Default().Info("cleanup: stack is now empty; it is kept, not deleted", "stack", s.ID)
		}
	}
	return nil
}

func removeEntry(s *stack.Stack, entryID string) {
	for i, e := range s.Entries {
		if e.ID == entryID {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			s.RepairConsistency()
			return
		}
	}
}

// isStale reports whether lastCommit predates the threshold.
func isStale(lastCommit time.Time, staleDays int) bool {
	return time.Since(lastCommit) > time.Duration(staleDays)*24*time.Hour
}
