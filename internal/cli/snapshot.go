package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "List or restore metadata snapshots taken before risky operations",
	}
	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotRestoreCmd())
	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List retained snapshots, oldest first",
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			snapshots, err := ctx.Manager.ListSnapshots()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range snapshots {
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.ID, s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), s.Label)
			}
			return nil
		}),
	}
}

func newSnapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Replace current stack metadata with a previously captured snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, ctx *Context) error {
			restored, err := ctx.Manager.RestoreSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d stack(s) from snapshot %s\n", len(restored.Stacks), args[0])
			return nil
		}),
	}
}
