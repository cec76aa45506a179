package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		stackName   string
		title       string
		description string
		draft       bool
		entries     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Push stack entries and open (or refresh) their pull requests",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			var ids []string
			if entries != "" {
				ids = strings.Split(entries, ",")
			}
			result, err := ctx.Manager.Submit(ctx, stackName, ids, title, description, draft)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range result.Results {
				if r.Err != nil {
					fmt.Fprintf(out, "%s\tFAILED\t%v\n", r.EntryID, r.Err)
					continue
				}
				fmt.Fprintf(out, "%s\tPR %s\n", r.EntryID, r.PullRequestID)
			}
			if failures := result.Failures(); len(failures) > 0 {
				return fmt.Errorf("%d of %d entries failed to submit", len(failures), len(result.Results))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	cmd.Flags().StringVar(&title, "title", "", "PR title override (defaults to each entry's commit message)")
	cmd.Flags().StringVar(&description, "description", "", "PR description")
	cmd.Flags().StringVar(&entries, "entries", "", "comma-separated entry IDs (defaults to every entry)")
	cmd.Flags().BoolVar(&draft, "draft", false, "open pull requests as drafts")
	return cmd
}
