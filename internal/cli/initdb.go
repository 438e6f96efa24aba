package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the blacklist table if it does not exist",
		Long: `Create the blacklist table, with a unique constraint on the package name,
in the configured database. Existing rows are left alone; run does the same
before reconciling.`,
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

			_, closeStore, err := e.openStore(ctx)
			if err != nil {
				return fail(e.formatter, ExitCommandError, "open database", err)
			}
			closeStore()

			db := e.cfg.Database
			if e.formatter.Format == "json" {
				return e.formatter.Success(map[string]string{"backend": db.Backend, "table": db.Table})
			}
			fmt.Fprintf(e.formatter.Writer, "table %s ready (%s)\n", db.Table, db.Backend)
			return nil
		},
	}
}
