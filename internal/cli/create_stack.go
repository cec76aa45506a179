package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateStackCmd() *cobra.Command {
	var (
		base string
		desc string
	)

	cmd := &cobra.Command{
		Use:   "create-stack <name>",
		Short: "Create a new stack and mark it active",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			s, err := ctx.Manager.CreateStack(ctx, args[0], base, desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created stack %q on base %q\n", s.Name, s.BaseBranch)
			return nil
		}),
	}

	cmd.Flags().StringVar(&base, "base", "", "base branch (defaults to config, then main/master)")
	cmd.Flags().StringVar(&desc, "description", "", "stack description")
	return cmd
}
