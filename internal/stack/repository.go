package stack

import "time"

// NewStack returns an empty, internally consistent Stack.
func NewStack(id, name, baseBranch, description string) *Stack {
	now := time.Now().UTC()
	s := &Stack{
		ID:          id,
		Name:        name,
		Description: description,
		BaseBranch:  baseBranch,
		Status:      StatusClean,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.repairEntryMap()
	return s
}

// RepairConsistency rebuilds every stack's EntryMap and prunes CommitMetadata
// rows that reference a stack no longer present, per spec.md §4.5's load
// procedure ("runs repair_consistency() on every stack, prunes CommitMetadata
// whose stack is unknown").
func (m *RepositoryMetadata) RepairConsistency() {
	for _, st := range m.Stacks {
		st.RepairConsistency()
	}
	for hash, cm := range m.Commits {
		if _, ok := m.Stacks[cm.StackID]; !ok {
			delete(m.Commits, hash)
		}
	}
}

// DeleteStack removes a stack and cascades to its CommitMetadata rows (the
// lifecycle rule in spec.md §3: "Deletion cascades to its CommitMetadata rows").
func (m *RepositoryMetadata) DeleteStack(id string) bool {
	if _, ok := m.Stacks[id]; !ok {
		return false
	}
	delete(m.Stacks, id)
	for hash, cm := range m.Commits {
		if cm.StackID == id {
			delete(m.Commits, hash)
		}
	}
	if m.ActiveStackID == id {
		m.ActiveStackID = ""
	}
	if m.EditMode.IsActive && m.EditMode.StackID == id {
		m.EditMode = EditMode{}
	}
	return true
}
