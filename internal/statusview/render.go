// Package statusview renders a Stack's entries for the CLI collaborator,
// coloring each entry by its state the way the teacher's
// internal/output/colors.go colors its branch tree. It is CLI-only: the
// core packages never import it, keeping them terminal-agnostic.
package statusview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cascade.dev/cascade/internal/stack"
)

var (
	styleCurrent    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleSubmitted  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleConflicted = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleDirty      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleDim        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// EntryLine colors and formats a single entry, marking the current branch.
func EntryLine(e stack.Entry, currentBranch string, drifted bool) string {
	marker := "◯"
	label := fmt.Sprintf("%s (%s)", e.Branch, shortHash(e.CommitHash))

	switch {
	case e.Branch == currentBranch:
		marker = styleCurrent.Render("◉")
		label = styleCurrent.Render(label + " (current)")
	case drifted:
		marker = styleConflicted.Render("◯")
		label = styleConflicted.Render(label + " (drift)")
	case e.IsSubmitted:
		label = styleSubmitted.Render(label + " (submitted)")
	default:
		label = styleDirty.Render(label)
	}

	return marker + "  " + label + "  " + styleDim.Render(e.Message)
}

// RenderStack renders every entry in a stack, top to bottom (tip first), one per line.
func RenderStack(s *stack.Stack, currentBranch string, driftedEntryIDs map[string]bool) string {
	var b strings.Builder
	for i := len(s.Entries) - 1; i >= 0; i-- {
		e := s.Entries[i]
		b.WriteString(EntryLine(e, currentBranch, driftedEntryIDs[e.ID]))
		b.WriteByte('\n')
	}
	return b.String()
}

func shortHash(hash string) string {
	if len(hash) <= 7 {
		return hash
	}
	return hash[:7]
}
