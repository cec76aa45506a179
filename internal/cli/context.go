// Package cli wires cascade's core packages (Manager, SyncCoordinator,
// RebaseEngine, IntegrityEngine, CleanupEngine) into a cobra command tree.
// It is the one place allowed to talk to the terminal: it is thin,
// non-interactive by default, and maps core errors to process exit
// behavior, per spec.md §6's "the core does not define process exit codes;
// those belong to the CLI collaborator." Grounded on the teacher's
// internal/runtime.Context + internal/cli/helpers.Run idiom.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/cascadeconfig"
	"cascade.dev/cascade/internal/cascadelog"
	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/manager"
	"cascade.dev/cascade/internal/provider"
)

// Context bundles the collaborators every command needs.
type Context struct {
	context.Context
	RepoRoot string
	Repo     *gitrepo.Repo
	Manager  *manager.Manager
	Config   *cascadeconfig.Config
	Log      *slog.Logger
	Provider provider.Provider // nil until a provider is configured
}

// buildContext opens the Git repository rooted at the current working
// directory and assembles every collaborator a command might need.
func buildContext(cmd *cobra.Command) (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	repo, err := gitrepo.Open(wd)
	if err != nil {
		return nil, fmt.Errorf("not a git repository (or any parent): %w", err)
	}

	cfg, err := cascadeconfig.Load(repo.Root())
	if err != nil {
		return nil, err
	}

	logger, err := cascadelog.New(cascadelog.Options{
		DebugFilePath: os.Getenv("CASCADE_LOG_FILE"),
		Quiet:         os.Getenv("CASCADE_QUIET") != "",
	})
	if err != nil {
		return nil, err
	}

	var prov provider.Provider
	if cfg.Provider != nil {
		prov = provider.NewBitbucket(provider.BitbucketConfig{
			BaseURL: derefOr(cfg.Provider.BaseURL, ""),
			Project: derefOr(cfg.Provider.Project, ""),
			Repo:    derefOr(cfg.Provider.Repo, ""),
			Token:   os.Getenv("CASCADE_PROVIDER_TOKEN"),
		})
	}

	mgrOpts := []manager.Option{manager.WithLogger(logger)}
	if prov != nil {
		mgrOpts = append(mgrOpts, manager.WithProvider(prov))
	}
	mgr := manager.New(repo.Root(), repo, cfg, mgrOpts...)

	return &Context{
		Context:  cmd.Context(),
		RepoRoot: repo.Root(),
		Repo:     repo,
		Manager:  mgr,
		Config:   cfg,
		Log:      logger,
		Provider: prov,
	}, nil
}

func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// run is the shared RunE body: build a Context, then hand it to fn.
func run(fn func(cmd *cobra.Command, args []string, ctx *Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, err := buildContext(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, args, ctx)
	}
}
