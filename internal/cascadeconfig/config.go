// Package cascadeconfig reads and writes the cascade repository
// configuration file (.cascade/config.json), following the teacher's
// internal/config/repo_config.go pattern: pointer fields for optional
// settings so "unset" and "explicitly false/empty" are distinguishable,
// snake_case JSON keys, and a Get* accessor per setting with a sensible
// default baked in.
package cascadeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RebaseConfig holds defaults for RebaseEngine invocations.
type RebaseConfig struct {
	Strategy     *string `json:"strategy,omitempty"`      // "branch_versioning" | "cherry_pick" | "three_way_merge" | "interactive"
	AutoResolve  *bool   `json:"auto_resolve,omitempty"`
	FetchOnStart *bool   `json:"fetch_on_start,omitempty"`
}

// ProviderConfig holds the PR host coordinates.
type ProviderConfig struct {
	Kind    *string `json:"kind,omitempty"` // "bitbucket_server"
	BaseURL *string `json:"base_url,omitempty"`
	Project *string `json:"project,omitempty"`
	Repo    *string `json:"repo,omitempty"`
}

// Config is the schema of .cascade/config.json: provider coordinates, git
// defaults, cascade defaults (including the rebase subsection), and a PR
// description template, per spec.md §6.
type Config struct {
	Provider              *ProviderConfig `json:"provider,omitempty"`
	DefaultBaseBranch     *string         `json:"default_base_branch,omitempty"`
	BranchNamePattern     *string         `json:"branch_name_pattern,omitempty"`
	PRDescriptionTemplate *string         `json:"pr_description_template,omitempty"`
	Rebase                *RebaseConfig   `json:"rebase,omitempty"`
	StaleBranchDays       *int            `json:"stale_branch_days,omitempty"`
}

const fileName = "config.json"

// Load reads <repoRoot>/.cascade/config.json. A missing file is not an
// error: it returns a zero-value Config so every Get* accessor falls back
// to its default, matching the teacher's GetRepoConfig behavior.
func Load(repoRoot string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, ".cascade", fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("cascadeconfig: read config.json: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cascadeconfig: parse config.json: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to <repoRoot>/.cascade/config.json, pretty-printed.
func Save(repoRoot string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cascadeconfig: marshal config.json: %w", err)
	}
	dir := filepath.Join(repoRoot, ".cascade")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cascadeconfig: create .cascade: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, fileName), append(data, '\n'), 0o644)
}

// GetDefaultBaseBranch returns the configured default base branch, or ""
// when unset — callers fall through to main/master/HEAD per spec.md §4.6.1.
func (c *Config) GetDefaultBaseBranch() string {
	if c == nil || c.DefaultBaseBranch == nil {
		return ""
	}
	return *c.DefaultBaseBranch
}

// GetBranchNamePattern returns the configured branch-name template, or ""
// when unset — callers fall back to the deterministic slug algorithm.
func (c *Config) GetBranchNamePattern() string {
	if c == nil || c.BranchNamePattern == nil {
		return ""
	}
	return *c.BranchNamePattern
}

// GetRebaseStrategy returns the configured default rebase strategy, or
// "branch_versioning" when unset (spec.md §4.8's default).
func (c *Config) GetRebaseStrategy() string {
	if c == nil || c.Rebase == nil || c.Rebase.Strategy == nil {
		return "branch_versioning"
	}
	return *c.Rebase.Strategy
}

// GetAutoResolve returns whether conflict auto-resolution is enabled.
func (c *Config) GetAutoResolve() bool {
	if c == nil || c.Rebase == nil || c.Rebase.AutoResolve == nil {
		return false
	}
	return *c.Rebase.AutoResolve
}

// GetStaleBranchDays returns the cleanup staleness threshold, default 30.
func (c *Config) GetStaleBranchDays() int {
	if c == nil || c.StaleBranchDays == nil {
		return 30
	}
	return *c.StaleBranchDays
}

// AggressiveLocking reports whether AtomicStore should use its CI lock
// timeout tier, per CASCADE_CI / CASCADE_AGGRESSIVE_LOCK environment flags.
func AggressiveLocking() bool {
	return os.Getenv("CASCADE_CI") != "" || os.Getenv("CASCADE_AGGRESSIVE_LOCK") != ""
}
