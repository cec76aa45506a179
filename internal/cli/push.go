package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/manager"
)

func newPushCmd() *cobra.Command {
	var (
		branch  string
		message string
		since   string
		all     bool
		commits string
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push pending commits onto the active stack",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			sel := manager.PushSelector{Since: since, All: all}
			if commits != "" {
				sel.Commits = strings.Split(commits, ",")
			}

			ids, err := ctx.Manager.Push(ctx, branch, message, sel)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch name for the first pushed commit")
	cmd.Flags().StringVar(&message, "message", "", "override the cached commit message for the last pushed commit")
	cmd.Flags().StringVar(&since, "since", "", "push every commit reachable from HEAD but not from <ref>")
	cmd.Flags().StringVar(&commits, "commits", "", "comma-separated explicit list of commit hashes")
	cmd.Flags().BoolVar(&all, "all", false, "push every untracked commit on HEAD")
	return cmd
}
