// Package integrity implements IntegrityEngine (spec.md §4.7): detecting
// where a stack's branches have drifted from their recorded entries, and
// repairing the drift via incorporate/split/reset/skip. It is grounded on
// the teacher's internal/git/rebase.go detached-HEAD cherry-pick idiom and
// internal/actions' "clean/restack" workflow shape.
package integrity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/stack"
)

// IssueKind classifies one entry's drift from Git.
type IssueKind string

const (
	IssueMissing      IssueKind = "missing"
	IssueExtraCommits IssueKind = "extra_commits"
	IssueDiverged     IssueKind = "diverged"
)

// Issue describes one entry's detected drift.
type Issue struct {
	Kind            IssueKind
	EntryID         string
	Branch          string
	ExpectedCommit  string
	ActualCommit    string
	ExtraCount      int
	ExtraMessages   []string // first lines, capped at 3
}

// RepairChoice is the caller's resolution for one Issue.
type RepairChoice string

const (
	RepairIncorporate RepairChoice = "incorporate"
	RepairSplit       RepairChoice = "split"
	RepairReset       RepairChoice = "reset"
	RepairSkip        RepairChoice = "skip"
)

// Engine drives detection and repair against one GitRepo.
type Engine struct {
	repo gitrepo.GitRepo
}

// New returns an integrity Engine bound to repo.
func New(repo gitrepo.GitRepo) *Engine {
	return &Engine{repo: repo}
}

// Detect classifies every entry of s per spec.md §4.7's Missing/ExtraCommits/Diverged rules.
func (e *Engine) Detect(ctx context.Context, s *stack.Stack) ([]Issue, error) {
	var issues []Issue
	for _, entry := range s.Entries {
		exists, err := e.repo.BranchExists(ctx, entry.Branch)
		if err != nil {
			return nil, err
		}
		if !exists {
			issues = append(issues, Issue{
				Kind:           IssueMissing,
				EntryID:        entry.ID,
				Branch:         entry.Branch,
				ExpectedCommit: entry.CommitHash,
			})
			continue
		}

		head, err := e.repo.BranchHead(ctx, entry.Branch)
		if err != nil {
			return nil, err
		}
		if head == entry.CommitHash {
			continue
		}

		// behind counts commits reachable from entry.CommitHash but not from
		// head; zero means entry.CommitHash is an ancestor of head.
		_, behind, err := e.repo.AheadBehind(ctx, entry.Branch, entry.CommitHash)
		if err != nil {
			return nil, err
		}

		if behind != 0 {
			issues = append(issues, Issue{
				Kind:           IssueDiverged,
				EntryID:        entry.ID,
				Branch:         entry.Branch,
				ExpectedCommit: entry.CommitHash,
				ActualCommit:   head,
			})
			continue
		}

		extra, err := e.repo.CommitsBetween(ctx, entry.CommitHash, head)
		if err != nil {
			return nil, err
		}
		messages := make([]string, 0, len(extra))
		for _, c := range extra {
			messages = append(messages, firstLine(c.Message))
		}
		if len(messages) > 3 {
			messages = messages[:3]
		}
		issues = append(issues, Issue{
			Kind:           IssueExtraCommits,
			EntryID:        entry.ID,
			Branch:         entry.Branch,
			ExpectedCommit: entry.CommitHash,
			ActualCommit:   head,
			ExtraCount:     len(extra),
			ExtraMessages:  messages,
		})
	}
	return issues, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Repair applies choice to issue against s, mutating s in place. The caller
// is responsible for persisting s and re-running validate_git afterward.
func (e *Engine) Repair(ctx context.Context, s *stack.Stack, issue Issue, choice RepairChoice) error {
	entry, ok := s.EntryMap[issue.EntryID]
	if !ok {
		return fmt.Errorf("integrity: entry %s not found in stack %s", issue.EntryID, s.ID)
	}

	switch issue.Kind {
	case IssueMissing:
		return e.repo.CreateBranch(ctx, issue.Branch, issue.ExpectedCommit)
	}

	switch choice {
	case RepairSkip:
		return nil

	case RepairReset:
		return e.repo.ResetBranchTo(ctx, issue.Branch, issue.ExpectedCommit)

	case RepairIncorporate:
		entry.CommitHash = issue.ActualCommit
		entry.UpdatedAt = time.Now().UTC()
		if len(issue.ExtraMessages) > 0 {
			entry.Message = entry.Message + "\n\nIncorporated commits:\n- " + strings.Join(issue.ExtraMessages, "\n- ")
		}
		return nil

	case RepairSplit:
		continuedBranch := issue.Branch + "-continued"
		if err := e.repo.CreateBranch(ctx, continuedBranch, issue.ActualCommit); err != nil {
			return err
		}
		if err := e.repo.ResetBranchTo(ctx, issue.Branch, issue.ExpectedCommit); err != nil {
			return err
		}

		summary := "Split from " + issue.Branch
		if len(issue.ExtraMessages) > 0 {
			summary += ": " + strings.Join(issue.ExtraMessages, "; ")
		}
		newID := s.PushEntry(continuedBranch, issue.ActualCommit, summary)
		reorderAfter(s, entry.ID, newID)
		return nil

	default:
		return fmt.Errorf("integrity: unknown repair choice %q", choice)
	}
}

// reorderAfter moves the just-appended entry newID (PushEntry always appends
// at the tail, wiring its parent to the old top) to sit immediately after
// afterID instead, matching spec.md §4.7's "insert a new Entry immediately
// after the current one". Splitting a non-top entry requires more than a
// slice move: newID's parent becomes afterID, and whatever entry used to
// follow afterID has its parent repointed to newID, so the chain stays
// intact (I2) regardless of where in the stack the split happened.
func reorderAfter(s *stack.Stack, afterID, newID string) {
	if afterID == "" || newID == "" {
		return
	}
	idx, afterIdx := -1, -1
	for i, e := range s.Entries {
		if e.ID == newID {
			idx = i
		}
		if e.ID == afterID {
			afterIdx = i
		}
	}
	if idx == -1 || afterIdx == -1 {
		return
	}

	newEntry := s.Entries[idx]
	afterEntry := &s.Entries[afterIdx]

	if newEntry.ParentID != "" && newEntry.ParentID != afterID {
		if oldParent := s.EntryMap[newEntry.ParentID]; oldParent != nil {
			oldParent.Children = removeID(oldParent.Children, newID)
		}
	}

	var successorID string
	for _, childID := range afterEntry.Children {
		if childID != newID {
			successorID = childID
			break
		}
	}

	afterEntry.Children = []string{newID}
	newEntry.ParentID = afterID
	newEntry.Children = nil
	if successorID != "" {
		newEntry.Children = append(newEntry.Children, successorID)
		if successor := s.EntryMap[successorID]; successor != nil {
			successor.ParentID = newID
		}
	}

	if idx == afterIdx+1 {
		s.Entries[idx] = newEntry
	} else {
		s.Entries = append(s.Entries[:idx], s.Entries[idx+1:]...)
		insertAt := afterIdx + 1
		if idx < insertAt {
			insertAt--
		}
		s.Entries = append(s.Entries[:insertAt], append([]stack.Entry{newEntry}, s.Entries[insertAt:]...)...)
	}
	s.RepairConsistency()
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
