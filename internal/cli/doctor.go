package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/integrity"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the repository environment for conditions that would block cascade",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			diagnostics := ctx.Manager.CheckEnvironment(ctx)
			out := cmd.OutOrStdout()
			hadError := false
			for _, d := range diagnostics {
				fmt.Fprintf(out, "[%s] %s\n", d.Level, d.Message)
				if d.Level == integrity.LevelError {
					hadError = true
				}
			}
			if hadError {
				return fmt.Errorf("one or more environment checks failed")
			}
			return nil
		}),
	}
}
