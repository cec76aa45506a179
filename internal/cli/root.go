package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the cascade command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "cascade",
		Short:   "cascade manages stacked Git changes against a Bitbucket Server review queue",
		Version: version,
		Long: `cascade tracks a linear sequence of commits as independently reviewable
pull requests, keeps their branches in sync as the stack evolves, and
submits, lands, and cleans them up without losing review history.`,
		SilenceUsage: true,
	}

	root.AddCommand(newCreateStackCmd())
	root.AddCommand(newPushCmd())
	root.AddCommand(newPopCmd())
	root.AddCommand(newEditCmd())
	root.AddCommand(newForeachCmd())
	root.AddCommand(newDescribeCmd())
	root.AddCommand(newSubmitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newRebaseCmd())
	root.AddCommand(newContinueCmd())
	root.AddCommand(newAbortCmd())
	root.AddCommand(newIntegrityCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newSnapshotCmd())

	return root
}
