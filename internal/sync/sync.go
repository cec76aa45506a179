// Package sync implements SyncCoordinator (spec.md §4.9): multi-entry PR
// submission and status refresh against a Provider, preserving PR history
// across rebases. Grounded on the teacher's internal/actions/sync.go (the
// pull/clean/restack pipeline shape and "warn and continue" partial-failure
// handling) generalized from GitHub-specific calls to the Provider port.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/provider"
	"cascade.dev/cascade/internal/stack"
)

// EntryResult is the per-entry outcome of a Submit call.
type EntryResult struct {
	EntryID       string
	PullRequestID string
	Err           error
}

// SubmitResult enumerates every entry's outcome; a failure on one entry
// never rolls back another, per spec.md §4.9's partial-failure policy.
type SubmitResult struct {
	Results []EntryResult
}

func (r SubmitResult) Failures() []EntryResult {
	var out []EntryResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// StackStatus aggregates the PR status of every submitted entry in a stack.
type StackStatus struct {
	Open      int
	Merged    int
	Declined  int
	Unknown   int
	Entries   map[string]provider.Pr // entry ID -> current PR snapshot
}

// Coordinator drives submission, status, and rebase-retargeting against one Provider.
type Coordinator struct {
	repo gitrepo.GitRepo
	prov provider.Provider
	log  *slog.Logger
}

// New returns a Coordinator bound to repo and prov.
func New(repo gitrepo.GitRepo, prov provider.Provider, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{repo: repo, prov: prov, log: log}
}

// Submit pushes each entry's branch and opens a new PR for it, in stack
// order; an existing PR recorded on the entry is not reused. Each entry is independent: a push or PR-create failure on
// one entry is recorded and the loop continues to the next.
func (c *Coordinator) Submit(ctx context.Context, s *stack.Stack, entryIDs []string, title, description string, draft bool) SubmitResult {
	var result SubmitResult

	for _, id := range entryIDs {
		entry, ok := s.EntryMap[id]
		if !ok {
			result.Results = append(result.Results, EntryResult{EntryID: id, Err: fmt.Errorf("entry %s not found in stack %s", id, s.ID)})
			continue
		}

		if err := c.repo.Push(ctx, entry.Branch, false); err != nil {
			c.log.Warn("submit: push failed, continuing (branch may already be upstream)",
				"entry", id, "branch", entry.Branch, "error", err)
		}

		target := s.BaseBranch
		if idx := indexOfEntry(s, id); idx > 0 {
			target = s.Entries[idx-1].Branch
		}

		prTitle := title
		if prTitle == "" {
			prTitle = entry.Message
		}

		pr, err := c.prov.CreatePR(ctx, provider.CreatePrRequest{
			Title:       prTitle,
			Description: description,
			Source:      entry.Branch,
			Target:      target,
			Draft:       draft,
		})
		if err != nil {
			result.Results = append(result.Results, EntryResult{EntryID: id, Err: err})
			continue
		}

		entry.PullRequestID = pr.ID
		entry.IsSubmitted = true
		result.Results = append(result.Results, EntryResult{EntryID: id, PullRequestID: pr.ID})
	}
	return result
}

func indexOfEntry(s *stack.Stack, id string) int {
	for i, e := range s.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Status fetches each submitted entry's PR and aggregates counts.
func (c *Coordinator) Status(ctx context.Context, s *stack.Stack) (StackStatus, error) {
	status := StackStatus{Entries: map[string]provider.Pr{}}

	for _, entry := range s.Entries {
		if !entry.IsSubmitted || entry.PullRequestID == "" {
			continue
		}
		pr, err := c.prov.GetPR(ctx, entry.PullRequestID)
		if err != nil {
			status.Unknown++
			c.log.Warn("status: failed to fetch PR", "entry", entry.ID, "pr", entry.PullRequestID, "error", err)
			continue
		}
		status.Entries[entry.ID] = pr
		switch pr.Status {
		case provider.StatusOpen:
			status.Open++
		case provider.StatusMerged:
			status.Merged++
		case provider.StatusDeclined, provider.StatusSuperseded:
			status.Declined++
		default:
			status.Unknown++
		}
	}
	return status, nil
}

// UpdatePRsAfterRebase retargets every PR whose entry got a new branch
// during a rebase. newBranchByEntryID is keyed by entry ID (as
// rebase.Result.NewBranch is), not by branch name, so it stays correct
// regardless of whether the caller has already renamed entry.Branch. If the
// Provider supports in-place source-branch updates it uses them; otherwise
// it declines the stale PR and opens a replacement whose description links
// back to the original. Entries with no open PR still get entry.Branch
// updated, just without any Provider call.
func (c *Coordinator) UpdatePRsAfterRebase(ctx context.Context, s *stack.Stack, newBranchByEntryID map[string]string) SubmitResult {
	var result SubmitResult
	supports, _ := c.prov.(provider.SupportsSourceBranchUpdate)

	for i := range s.Entries {
		entry := &s.Entries[i]
		newBranch, changed := newBranchByEntryID[entry.ID]
		if !changed {
			continue
		}
		if !entry.IsSubmitted || entry.PullRequestID == "" {
			entry.Branch = newBranch
			continue
		}

		if supports != nil && supports.SupportsSourceBranchUpdate() {
			src := newBranch
			_, err := c.prov.UpdatePR(ctx, entry.PullRequestID, provider.PrPatch{Source: &src})
			result.Results = append(result.Results, EntryResult{EntryID: entry.ID, PullRequestID: entry.PullRequestID, Err: err})
			entry.Branch = newBranch
			continue
		}

		if err := c.prov.DeclinePR(ctx, entry.PullRequestID, "superseded by rebase"); err != nil {
			result.Results = append(result.Results, EntryResult{EntryID: entry.ID, Err: err})
			continue
		}
		pr, err := c.prov.CreatePR(ctx, provider.CreatePrRequest{
			Title:       entry.Message,
			Description: fmt.Sprintf("Supersedes #%s", entry.PullRequestID),
			Source:      newBranch,
			Target:      s.BaseBranch,
		})
		if err != nil {
			result.Results = append(result.Results, EntryResult{EntryID: entry.ID, Err: err})
			continue
		}
		entry.Branch = newBranch
		entry.PullRequestID = pr.ID
		result.Results = append(result.Results, EntryResult{EntryID: entry.ID, PullRequestID: pr.ID})
	}
	return result
}

// Autoland merges entries bottom-up while each is Open and green, per
// spec.md §4.9. The PR's mergeability is not checked before MergePR.
func (c *Coordinator) Autoland(ctx context.Context, s *stack.Stack, strategy provider.MergeStrategy) SubmitResult {
	var result SubmitResult

	for _, entry := range s.Entries {
		if !entry.IsSubmitted || entry.PullRequestID == "" {
			continue
		}
		pr, err := c.prov.GetPR(ctx, entry.PullRequestID)
		if err != nil {
			result.Results = append(result.Results, EntryResult{EntryID: entry.ID, Err: err})
			continue
		}
		if pr.Status != provider.StatusOpen {
			continue
		}

		build, err := c.prov.BuildStatus(ctx, entry.CommitHash)
		if err != nil || build.Status != "success" {
			c.log.Info("autoland: skipping entry, build not green", "entry", entry.ID, "status", build.Status)
			break // preserve dependency order: a blocked entry blocks everything above it
		}

		merged, err := c.prov.MergePR(ctx, entry.PullRequestID, strategy)
		if err != nil {
			result.Results = append(result.Results, EntryResult{EntryID: entry.ID, Err: err})
			break
		}
		_ = merged
		result.Results = append(result.Results, EntryResult{EntryID: entry.ID, PullRequestID: entry.PullRequestID})
	}
	return result
}
