// Package provider defines the Provider port (spec.md §4.3) — the narrow
// capability surface cascade's core uses to talk to a PR-hosting service —
// plus a reference implementation targeting a self-hosted Bitbucket Server
// (API v1.0 semantics, spec.md §6).
package provider

import (
	"context"
	"time"
)

// Status is the lifecycle state of a Pr.
type Status string

const (
	StatusOpen       Status = "open"
	StatusMerged     Status = "merged"
	StatusDeclined   Status = "declined"
	StatusSuperseded Status = "superseded"
)

// MergeStrategy selects how Provider.MergePR integrates a PR.
type MergeStrategy string

const (
	StrategyMerge              MergeStrategy = "merge"
	StrategySquash             MergeStrategy = "squash"
	StrategyFastForward        MergeStrategy = "fast_forward"
	StrategySquashFastForward  MergeStrategy = "squash_fast_forward"
)

// Pr is the provider-agnostic pull request view spec.md §4.3 names.
type Pr struct {
	ID        string
	Title     string
	Body      string
	Source    string
	Target    string
	Author    string
	Status    Status
	WebURL    string
	Reviewers []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePrRequest carries the fields needed to open a PR.
type CreatePrRequest struct {
	Title       string
	Description string
	Source      string
	Target      string
	Draft       bool
}

// PrPatch carries a partial update for UpdatePR; nil fields are left alone.
type PrPatch struct {
	Title       *string
	Description *string
	Source      *string
	Target      *string
}

// BuildStatus is the CI outcome for a commit, per spec.md §4.3.
type BuildStatus struct {
	Status  string // "pending" | "success" | "failed"
	URL     string
	Context string
}

// MergeResult carries the hash produced by a successful merge.
type MergeResult struct {
	MergedHash string
}

// Provider is the capability set consumed by SyncCoordinator.
type Provider interface {
	HealthCheck(ctx context.Context) error
	CreatePR(ctx context.Context, req CreatePrRequest) (Pr, error)
	GetPR(ctx context.Context, id string) (Pr, error)
	UpdatePR(ctx context.Context, id string, patch PrPatch) (Pr, error)
	DeclinePR(ctx context.Context, id string, reason string) error
	MergePR(ctx context.Context, id string, strategy MergeStrategy) (MergeResult, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	BuildStatus(ctx context.Context, commit string) (BuildStatus, error)
	WaitForBuilds(ctx context.Context, commit string, timeout time.Duration) (BuildStatus, error)
}

// SupportsSourceBranchUpdate reports whether a Provider implementation can
// retarget a PR's source branch in place via UpdatePR, or whether
// SyncCoordinator must fall back to decline-and-reopen. The reference
// Bitbucket Server implementation supports it; a Provider that cannot
// should implement this interface to return false.
type SupportsSourceBranchUpdate interface {
	SupportsSourceBranchUpdate() bool
}
