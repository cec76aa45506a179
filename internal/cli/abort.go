package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Cancel an in-progress rebase and restore the pre-rebase state",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			if err := ctx.Manager.AbortRebase(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rebase aborted")
			return nil
		}),
	}
}
