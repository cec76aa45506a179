package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/stack"
)

func newForeachCmd() *cobra.Command {
	var (
		stackName string
		topDown   bool
	)

	cmd := &cobra.Command{
		Use:   "foreach",
		Short: "Print every entry of a stack, bottom-up by default",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			return ctx.Manager.ForEachEntry(ctx, stackName, topDown, func(_ context.Context, e stack.Entry) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.ID, e.Branch, e.Message)
				return nil
			})
		}),
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	cmd.Flags().BoolVar(&topDown, "top-down", false, "visit tip-to-base instead of base-to-tip")
	return cmd
}
