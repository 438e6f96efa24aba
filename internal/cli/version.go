package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/roach88/blup/internal/cli.Version=...".
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blup version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if f.Format == "json" {
				return f.Success(map[string]string{"version": Version})
			}
			fmt.Fprintf(f.Writer, "blup %s\n", Version)
			return nil
		},
	}
}
