package cli

import (
	"github.com/spf13/cobra"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what run would change without writing",
		Long: `Refresh the sync databases and print the names run would add to and
remove from the blacklist table. The table is only read.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			ctx, stop := commandContext(cmd)
			defer stop()

			st, closeStore, err := e.openStore(ctx)
			if err != nil {
				return fail(e.formatter, ExitCommandError, "open database", err)
			}
			defer closeStore()

			src, err := e.newSource()
			if err != nil {
				return fail(e.formatter, ExitCommandError, "sync databases", err)
			}
			r, err := e.newReconciler(st, src, force)
			if err != nil {
				return fail(e.formatter, ExitCommandError, "config", err)
			}

			rep, err := r.Plan(ctx)
			if err != nil {
				return fail(e.formatter, ExitFailure, "diff", err)
			}
			return writeReport(e.formatter, rep)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-download sync databases even if cached copies are current")

	return cmd
}
