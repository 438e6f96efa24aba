package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Force bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the blacklist table with the repositories",
		Long: `Refresh the configured sync databases, build the desired blacklist and
apply the difference to the blacklist table.

All changes are made in one transaction that holds the table exclusively.
If anything fails the table is left as it was and blup exits with status 1.

Example:
  blup run
  blup run --config ./blup.yaml --strategy replace --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "re-download sync databases even if cached copies are current")

	return cmd
}

func runReconcile(cmd *cobra.Command, opts *RunOptions) error {
	e, err := newEnv(cmd, opts.RootOptions)
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
	r, err := e.newReconciler(st, src, opts.Force)
	if err != nil {
		return fail(e.formatter, ExitCommandError, "config", err)
	}

	rep, err := r.Run(ctx)
	if err != nil {
		return fail(e.formatter, ExitFailure, "run", err)
	}
	return writeReport(e.formatter, rep)
}

// commandContext returns the command's context, cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
