package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/cleanup"
)

func newCleanupCmd() *cobra.Command {
	var (
		staleDays       int
		includeOrphaned bool
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete local branches a stacked workflow has left behind",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			days := staleDays
			if days == 0 {
				days = ctx.Config.GetStaleBranchDays()
			}
			opts := cleanup.Options{StaleDays: days, IncludeOrphaned: includeOrphaned, DryRun: dryRun}

			candidates, err := ctx.Manager.ScanCleanup(ctx, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "nothing to clean up")
				return nil
			}
			for _, c := range candidates {
				fmt.Fprintf(out, "%s\t%s\n", c.BranchName, c.Kind)
			}
			if dryRun {
				return nil
			}
			return ctx.Manager.RunCleanup(ctx, candidates, opts)
		}),
	}

	cmd.Flags().IntVar(&staleDays, "stale-days", 0, "override the configured stale-branch threshold")
	cmd.Flags().BoolVar(&includeOrphaned, "orphaned", false, "also classify branches with no stack or upstream reference")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list candidates without deleting anything")
	return cmd
}
