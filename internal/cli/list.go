package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Table string   `json:"table"`
	Count int      `json:"count"`
	Names []string `json:"names"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Print the names in the blacklist table",
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

			names, err := st.ReadAll(ctx)
			if err != nil {
				return fail(e.formatter, ExitFailure, "list", err)
			}

			result := ListResult{Table: e.cfg.Database.Table, Count: names.Len(), Names: names.Sorted()}
			if e.formatter.Format == "json" {
				return e.formatter.Success(result)
			}
			for _, name := range result.Names {
				fmt.Fprintln(e.formatter.Writer, name)
			}
			return nil
		},
	}
}
