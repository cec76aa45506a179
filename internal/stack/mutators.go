package stack

import (
	"time"

	"github.com/google/uuid"
)

// PushEntry appends a new Entry for the given branch/commit/message, wires
// its parent/child links to the current top entry, and keeps EntryMap in
// sync. It returns the new entry's id.
func (s *Stack) PushEntry(branch, hash, message string) string {
	now := time.Now().UTC()
	entry := Entry{
		ID:         uuid.NewString(),
		Branch:     branch,
		CommitHash: hash,
		Message:    message,
		Children:   []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if n := len(s.Entries); n > 0 {
		parent := &s.Entries[n-1]
		entry.ParentID = parent.ID
		parent.Children = append(parent.Children, entry.ID)
		parent.UpdatedAt = now
	}

	s.Entries = append(s.Entries, entry)
	s.UpdatedAt = now
	s.repairEntryMap()
	return entry.ID
}

// PopEntry removes the top entry, detaches its parent's child link, and
// returns the removed entry.
func (s *Stack) PopEntry() (Entry, bool) {
	n := len(s.Entries)
	if n == 0 {
		return Entry{}, false
	}
	top := s.Entries[n-1]
	s.Entries = s.Entries[:n-1]

	if top.ParentID != "" {
		for i := range s.Entries {
			if s.Entries[i].ID == top.ParentID {
				s.Entries[i].Children = removeString(s.Entries[i].Children, top.ID)
				s.Entries[i].UpdatedAt = time.Now().UTC()
				break
			}
		}
	}

	s.UpdatedAt = time.Now().UTC()
	s.repairEntryMap()
	return top, true
}

// MarkSubmitted records a pull request id against an entry and flips
// is_submitted, updating both Entries and EntryMap in one call (I6).
func (s *Stack) MarkSubmitted(id, prID string) bool {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			s.Entries[i].IsSubmitted = true
			s.Entries[i].PullRequestID = prID
			s.Entries[i].UpdatedAt = time.Now().UTC()
			s.repairEntryMap()
			return true
		}
	}
	return false
}

// MarkSynced flips is_synced on the named entry.
func (s *Stack) MarkSynced(id string) bool {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			s.Entries[i].IsSynced = true
			s.Entries[i].UpdatedAt = time.Now().UTC()
			s.repairEntryMap()
			return true
		}
	}
	return false
}

// RepairConsistency rebuilds EntryMap from Entries, the canonical ordered
// list. JSON deserialization does not preserve pointer identity between a
// slice and a parallel map of pointers, so every load must call this before
// EntryMap is trusted for lookups.
func (s *Stack) RepairConsistency() {
	s.repairEntryMap()
}

func (s *Stack) repairEntryMap() {
	s.EntryMap = make(map[string]*Entry, len(s.Entries))
	for i := range s.Entries {
		s.EntryMap[s.Entries[i].ID] = &s.Entries[i]
	}
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
