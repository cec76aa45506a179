package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Enter or exit amend-in-place edit mode for a stack entry",
	}
	cmd.AddCommand(newEnterEditCmd())
	cmd.AddCommand(newExitEditCmd())
	return cmd
}

func newEnterEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <entry-id>",
		Short: "Check out an entry's branch and enter edit mode",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			if err := ctx.Manager.EnterEditMode(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "edit mode started; amend and run `cascade push` to update the entry")
			return nil
		}),
	}
}

func newExitEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done",
		Short: "Exit edit mode",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			if err := ctx.Manager.ExitEditMode(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "edit mode ended")
			return nil
		}),
	}
}
