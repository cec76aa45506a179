package integrity

import (
	"context"

	"cascade.dev/cascade/internal/gitrepo"
)

// DiagnosticLevel is the severity of a CheckEnvironment finding.
type DiagnosticLevel string

const (
	LevelOK    DiagnosticLevel = "ok"
	LevelWarn  DiagnosticLevel = "warning"
	LevelError DiagnosticLevel = "error"
)

// Diagnostic is one CheckEnvironment finding.
type Diagnostic struct {
	Level   DiagnosticLevel
	Message string
}

// CheckEnvironment runs a battery of cheap, read-only checks against repo
// and reports what would block or complicate cascade operations: a
// supplemented feature (original_source's CheckEnvironment) with no
// direct spec.md counterpart.
func CheckEnvironment(ctx context.Context, repo gitrepo.GitRepo) []Diagnostic {
	var diags []Diagnostic

	if _, onBranch, err := repo.CurrentBranch(ctx); err != nil {
		diags = append(diags, Diagnostic{LevelError, "cannot resolve current branch: " + err.Error()})
	} else if !onBranch {
		diags = append(diags, Diagnostic{LevelWarn, "HEAD is detached; there is no current branch"})
	} else {
		diags = append(diags, Diagnostic{LevelOK, "current branch resolves"})
	}

	inProgress, err := repo.IsRebaseInProgress(ctx)
	switch {
	case err != nil:
		diags = append(diags, Diagnostic{LevelWarn, "could not determine rebase state: " + err.Error()})
	case inProgress:
		diags = append(diags, Diagnostic{LevelError, "a rebase is already in progress; resolve it before running cascade commands"})
	default:
		diags = append(diags, Diagnostic{LevelOK, "no rebase in progress"})
	}

	locked, err := repo.IndexLocked(ctx)
	switch {
	case err != nil:
		diags = append(diags, Diagnostic{LevelWarn, "could not check index lock: " + err.Error()})
	case locked:
		diags = append(diags, Diagnostic{LevelError, "git index is locked; another git process may be running"})
	default:
		diags = append(diags, Diagnostic{LevelOK, "git index is not locked"})
	}

	return diags
}
