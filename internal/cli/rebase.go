package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/rebase"
)

func newRebaseCmd() *cobra.Command {
	var (
		stackName string
		strategy  string
	)

	cmd := &cobra.Command{
		Use:   "rebase <new-base>",
		Short: "Re-parent a stack's entries onto a new base commit or branch",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			result, err := ctx.Manager.Rebase(ctx, stackName, args[0], rebase.Strategy(strategy), nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Summary)
			switch result.State {
			case rebase.StatePaused:
				fmt.Fprintln(out, "resolve the conflict, `git add` the result, then run `cascade continue`")
				return fmt.Errorf("rebase paused on a conflict")
			case rebase.StateAborted:
				return fmt.Errorf("rebase aborted: %s", result.Summary)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	cmd.Flags().StringVar(&strategy, "strategy", string(rebase.StrategyBranchVersioning), "branch_versioning, cherry_pick, or three_way_merge")
	return cmd
}
