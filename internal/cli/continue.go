package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newContinueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Check that a rebase paused on a conflict is in progress",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			if err := ctx.Manager.ContinueRebase(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rebase in progress")
			return nil
		}),
	}
}
