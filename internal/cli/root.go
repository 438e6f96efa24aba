package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/blup/internal/reconcile"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogFormat string // "console" | "json"

	ConfigPath string

	// Database and reconciliation overrides; applied only when set.
	DBBackend  string
	DBHost     string
	DBPort     int
	DBSocket   string
	DBUser     string
	DBPassword string
	DBName     string
	DBTable    string
	Strategy   string
	Include    []string

	// IDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs reconcile.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogFormats defines the allowed log encodings.
var ValidLogFormats = []string{"console", "json"}

// NewRootCommand creates the root command for the blup CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blup",
		Short: "blup - package blacklist updater",
		Long: `Keep the package blacklist table in sync with the official repositories.

blup reads the pacman sync databases of the configured repositories, derives
the set of blacklisted package names and applies the difference to the
blacklist table in one exclusive transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidLogFormats, opts.LogFormat) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, ValidLogFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, c.CommandPath(), err)
	})

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.LogFormat, "log-format", "console", "log format on stderr (console|json)")
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $BLUP_CONFIG or /etc/blup/config)")

	pf.StringVar(&opts.DBBackend, "db-backend", "", "database backend (sqlite|postgres)")
	pf.StringVar(&opts.DBHost, "db-host", "", "database host")
	pf.IntVar(&opts.DBPort, "db-port", 0, "database port")
	pf.StringVar(&opts.DBSocket, "db-socket", "", "database socket directory")
	pf.StringVar(&opts.DBUser, "db-user", "", "database user")
	pf.StringVar(&opts.DBPassword, "db-password", "", "database password")
	pf.StringVar(&opts.DBName, "db-name", "", "database name (sqlite: file path)")
	pf.StringVar(&opts.DBTable, "db-table", "", "blacklist table name")
	pf.StringVar(&opts.Strategy, "strategy", "", "write strategy (incremental|replace)")
	pf.StringSliceVar(&opts.Include, "include", nil, "record fields to blacklist (name,provides,replaces)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}
