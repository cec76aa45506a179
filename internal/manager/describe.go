package manager

import "context"

// EntryDescription is one line of a Describe summary.
type EntryDescription struct {
	ID            string
	Branch        string
	ShortHash     string
	Message       string
	IsSubmitted   bool
	PullRequestID string
	IsSynced      bool
}

// StackDescription is the read-only summary produced by Describe.
type StackDescription struct {
	Name       string
	BaseBranch string
	IsActive   bool
	Entries    []EntryDescription
}

// Describe implements the supplemented info/describe feature: a read-only
// snapshot of a stack's entries, base-to-tip, with no Git calls beyond what
// is already cached in metadata.
func (m *Manager) Describe(ctx context.Context, stackName string) (StackDescription, error) {
	repoMeta, err := m.store.Load()
	if err != nil {
		return StackDescription{}, err
	}
	s, err := resolveStack(repoMeta, stackName)
	if err != nil {
		return StackDescription{}, err
	}

	desc := StackDescription{
		Name:       s.Name,
		BaseBranch: s.BaseBranch,
		IsActive:   s.IsActive,
		Entries:    make([]EntryDescription, len(s.Entries)),
	}
	for i, e := range s.Entries {
		hash := e.CommitHash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		desc.Entries[i] = EntryDescription{
			ID:            e.ID,
			Branch:        e.Branch,
			ShortHash:     hash,
			Message:       e.Message,
			IsSubmitted:   e.IsSubmitted,
			PullRequestID: e.PullRequestID,
			IsSynced:      e.IsSynced,
		}
	}
	return desc, nil
}
