package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cascade.dev/cascade/internal/cerrors"
	"cascade.dev/cascade/internal/integrity"
)

func newIntegrityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Detect and repair drift between stack metadata and Git branches",
	}
	cmd.AddCommand(newIntegrityCheckCmd())
	cmd.AddCommand(newIntegrityRepairCmd())
	return cmd
}

func newIntegrityCheckCmd() *cobra.Command {
	var stackName string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report drift between a stack's entries and their branches",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			issues, err := ctx.Manager.CheckIntegrity(ctx, stackName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "no drift detected")
				return nil
			}
			for _, iss := range issues {
				fmt.Fprintf(out, "%s\t%s\t%s\n", iss.EntryID, iss.Branch, iss.Kind)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	return cmd
}

func newIntegrityRepairCmd() *cobra.Command {
	var (
		stackName string
		entryID   string
		choice    string
	)
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Resolve one entry's detected drift",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			issues, err := ctx.Manager.CheckIntegrity(ctx, stackName)
			if err != nil {
				return err
			}
			var target *integrity.Issue
			for i := range issues {
				if issues[i].EntryID == entryID {
					target = &issues[i]
					break
				}
			}
			if target == nil {
				return cerrors.NewNotFoundError("integrity issue for entry", entryID)
			}
			if err := ctx.Manager.RepairIntegrity(ctx, stackName, *target, integrity.RepairChoice(choice)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "repaired %s via %s\n", entryID, choice)
			return nil
		}),
	}
	cmd.Flags().StringVar(&stackName, "stack", "", "stack name (defaults to the active stack)")
	cmd.Flags().StringVar(&entryID, "entry", "", "entry ID to repair")
	cmd.Flags().StringVar(&choice, "choice", "", "incorporate, split, reset, or skip")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("choice")
	return cmd
}
