package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/statusview"
)

func newDescribeCmd() *cobra.Command {
	var (
		stackName string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print a read-only summary of a stack",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			out := cmd.OutOrStdout()

			if plain {
				desc, err := ctx.Manager.Describe(ctx, stackName)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (base: %s, active: %v)\n", desc.Name, desc.BaseBranch, desc.IsActive)
				for _, e := range desc.Entries {
					submitted := ""
					if e.IsSubmitted {
						submitted = fmt.Sprintf(" [PR %s]", e.PullRequestID)
					}
					fmt.Fprintf(out, "  %s %s %s%s\n", e.ShortHash, e.Branch, e.Message, submitted)
				}
				return nil
			}

			s, err := ctx.Manager.LoadStack(stackName)
			if err != nil {
				return err
			}
			current, _, _ := ctx.Repo.CurrentBranch(ctx)

			drifted := map[string]bool{}
			if issues, iErr := ctx.Manager.CheckIntegrity(ctx, stackName); iErr == nil {
				for _, iss := range issues {
					drifted[iss.EntryID] = true
				}
			}

			fmt.Fprintf(out, "%s (base: %s)\n", s.Name, s.BaseBranch)
			fmt.Fprint(out, statusview.RenderStack(s, current, drifted))
			return nil
		}),
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print an uncolored, scriptable summary instead")
	return cmd
}
