package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var stackName string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the merge status of every submitted entry in a stack",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			status, err := ctx.Manager.Status(ctx, stackName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for id, pr := range status.Entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", id, pr.ID, pr.Status)
			}
			fmt.Fprintf(out, "open=%d merged=%d declined=%d unknown=%d\n",
				status.Open, status.Merged, status.Declined, status.Unknown)
			return nil
		}),
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	return cmd
}
