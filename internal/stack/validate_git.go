package stack

import (
	"context"
	"fmt"

	"cascade.dev/cascade/internal/gitrepo"
)

// DriftIssue describes one entry whose Git state no longer matches the
// stack's recorded view, as surfaced by ValidateGit.
type DriftIssue struct {
	EntryID string
	Branch  string
	Reason  string
}

// ValidateGit verifies, for every entry, that its branch still exists and
// that the branch's head still matches the entry's recorded commit hash.
// A branch that cannot be verified (e.g. the commit lookup itself errors)
// is reported as a warning-level issue rather than failing outright —
// spec.md §4.4 calls for "Ok with warnings" when Git state cannot be
// confirmed, since a transient Git error should not corrupt the stack view.
func (s *Stack) ValidateGit(ctx context.Context, repo gitrepo.GitRepo) ([]DriftIssue, error) {
	var issues []DriftIssue
	for _, e := range s.Entries {
		exists, err := repo.BranchExists(ctx, e.Branch)
		if err != nil {
			issues = append(issues, DriftIssue{EntryID: e.ID, Branch: e.Branch, Reason: fmt.Sprintf("could not verify branch existence: %v", err)})
			continue
		}
		if !exists {
			issues = append(issues, DriftIssue{EntryID: e.ID, Branch: e.Branch, Reason: "branch no longer exists"})
			continue
		}
		head, err := repo.BranchHead(ctx, e.Branch)
		if err != nil {
			issues = append(issues, DriftIssue{EntryID: e.ID, Branch: e.Branch, Reason: fmt.Sprintf("could not read branch head: %v", err)})
			continue
		}
		if head != e.CommitHash {
			issues = append(issues, DriftIssue{EntryID: e.ID, Branch: e.Branch, Reason: fmt.Sprintf("branch head %s does not match recorded commit %s", head, e.CommitHash)})
		}
	}
	return issues, nil
}
