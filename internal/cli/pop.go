package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "Remove the topmost entry of the active stack",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			entry, err := ctx.Manager.Pop(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "popped %s (%s)\n", entry.Branch, entry.Message)
			return nil
		}),
	}
}
