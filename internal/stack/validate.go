package stack

import (
	"fmt"

	"cascade.dev/cascade/internal/cerrors"
)

// Validate checks the structural invariants a single Stack can verify on
// its own (I1-I4, I6) and returns the first violation found, or nil.
// Cross-stack invariants (I5, I7, I8) are checked by RepositoryMetadata.Validate.
func (s *Stack) Validate() error {
	if err := s.validateEntryMapConsistency(); err != nil {
		return err
	}
	if err := s.validateLinearity(); err != nil {
		return err
	}
	if err := s.validateUniqueBranches(); err != nil {
		return err
	}
	if err := s.validateUniqueMessages(); err != nil {
		return err
	}
	if err := s.validateSubmissionFlag(); err != nil {
		return err
	}
	return nil
}

// validateEntryMapConsistency checks I1.
func (s *Stack) validateEntryMapConsistency() error {
	if len(s.EntryMap) != len(s.Entries) {
		return cerrors.NewValidationError(
			fmt.Sprintf("stack %q: entry_map has %d entries but entries has %d", s.Name, len(s.EntryMap), len(s.Entries)),
			"call RepairConsistency() to rebuild entry_map from entries",
		)
	}
	for i := range s.Entries {
		e := &s.Entries[i]
		mapped, ok := s.EntryMap[e.ID]
		if !ok || mapped.ID != e.ID {
			return cerrors.NewValidationError(
				fmt.Sprintf("stack %q: entry %q missing or mismatched in entry_map", s.Name, e.ID),
				"call RepairConsistency() to rebuild entry_map from entries",
			)
		}
	}
	return nil
}

// validateLinearity checks I2.
func (s *Stack) validateLinearity() error {
	for i := range s.Entries {
		if i == 0 {
			if s.Entries[0].ParentID != "" {
				return cerrors.NewValidationError(
					fmt.Sprintf("stack %q: base entry %q has a non-empty parent_id", s.Name, s.Entries[0].ID),
				)
			}
			continue
		}
		if s.Entries[i].ParentID != s.Entries[i-1].ID {
			return cerrors.NewValidationError(
				fmt.Sprintf("stack %q: entry %q at position %d does not chain from its predecessor", s.Name, s.Entries[i].ID, i),
				"reorder or repair the stack so each entry's parent_id matches the entry before it",
			)
		}
	}
	return nil
}

// validateUniqueBranches checks I3.
func (s *Stack) validateUniqueBranches() error {
	seen := make(map[string]string, len(s.Entries))
	for _, e := range s.Entries {
		if prior, ok := seen[e.Branch]; ok {
			return cerrors.NewValidationError(
				fmt.Sprintf("stack %q: branch %q is used by both entry %q and entry %q", s.Name, e.Branch, prior, e.ID),
				"rename one of the conflicting branches",
			)
		}
		seen[e.Branch] = e.ID
	}
	return nil
}

// validateUniqueMessages checks I4 (used as a cheap dedup fingerprint, case-sensitive).
func (s *Stack) validateUniqueMessages() error {
	seen := make(map[string]string, len(s.Entries))
	for _, e := range s.Entries {
		if prior, ok := seen[e.Message]; ok {
			return cerrors.NewValidationError(
				fmt.Sprintf("stack %q: commit message %q is shared by entry %q and entry %q", s.Name, e.Message, prior, e.ID),
				"amend one commit's message so it is unique within the stack",
				"split the duplicate commit out of the stack",
				"use `--message` to override the cached message for one entry",
			)
		}
		seen[e.Message] = e.ID
	}
	return nil
}

// validateSubmissionFlag checks I6.
func (s *Stack) validateSubmissionFlag() error {
	for _, e := range s.Entries {
		if e.IsSubmitted && e.PullRequestID == "" {
			return cerrors.NewValidationError(
				fmt.Sprintf("stack %q: entry %q is marked submitted but has no pull_request_id", s.Name, e.ID),
			)
		}
		if !e.IsSubmitted && e.PullRequestID != "" {
			return cerrors.NewValidationError(
				fmt.Sprintf("stack %q: entry %q has a pull_request_id but is not marked submitted", s.Name, e.ID),
			)
		}
	}
	return nil
}

// Validate checks the cross-stack invariants I5, I7, I8 against the full
// repository view.
func (m *RepositoryMetadata) Validate() error {
	activeCount := 0
	for id, st := range m.Stacks {
		if st.IsActive {
			activeCount++
		}
		if err := st.Validate(); err != nil {
			return err
		}
		if id != st.ID {
			return cerrors.NewValidationError(fmt.Sprintf("stack keyed %q has id %q", id, st.ID))
		}
	}
	if activeCount > 1 {
		return cerrors.NewValidationError(fmt.Sprintf("%d stacks are marked active; at most one may be (I5)", activeCount))
	}

	if m.ActiveStackID != "" {
		if _, ok := m.Stacks[m.ActiveStackID]; !ok {
			return cerrors.NewValidationError(fmt.Sprintf("active_stack_id %q does not refer to an existing stack (I7)", m.ActiveStackID))
		}
	}
	for hash, cm := range m.Commits {
		if _, ok := m.Stacks[cm.StackID]; !ok {
			return cerrors.NewValidationError(fmt.Sprintf("commit %q references unknown stack %q (I7)", hash, cm.StackID))
		}
	}

	if m.EditMode.IsActive {
		st, ok := m.Stacks[m.EditMode.StackID]
		if !ok {
			return cerrors.NewValidationError(fmt.Sprintf("edit_mode references unknown stack %q (I8)", m.EditMode.StackID))
		}
		if _, ok := st.EntryMap[m.EditMode.TargetEntryID]; !ok {
			return cerrors.NewValidationError(fmt.Sprintf("edit_mode references unknown entry %q in stack %q (I8)", m.EditMode.TargetEntryID, st.ID))
		}
	}
	return nil
}
