package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/config"
	"github.com/roach88/blup/internal/logging"
	"github.com/roach88/blup/internal/pgstore"
	"github.com/roach88/blup/internal/reconcile"
	"github.com/roach88/blup/internal/store"
	"github.com/roach88/blup/internal/syncdb"
)

// env is everything a command needs, resolved from flags and config.
type env struct {
	opts      *RootOptions
	cfg       *config.Config
	log       *logging.Logger
	formatter *OutputFormatter
}

func newEnv(cmd *cobra.Command, opts *RootOptions) (*env, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	log, err := logging.New(logging.Options{
		Verbose: opts.Verbose,
		Format:  opts.LogFormat,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fail(formatter, ExitCommandError, "logging", err)
	}

	path := config.ResolvePath(opts.ConfigPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fail(formatter, ExitCommandError, "config", err)
	}
	cfg.Apply(overrides(cmd, opts))
	if err := cfg.Validate(); err != nil {
		return nil, fail(formatter, ExitCommandError, "config", err)
	}
	log.Debug("config loaded", "path", path, "backend", cfg.Database.Backend, "table", cfg.Database.Table)

	return &env{opts: opts, cfg: cfg, log: log, formatter: formatter}, nil
}

// overrides collects the database flags the user actually set.
func overrides(cmd *cobra.Command, opts *RootOptions) config.Overrides {
	flags := cmd.Flags()
	str := func(name string, v *string) *string {
		if flags.Changed(name) {
			return v
		}
		return nil
	}

	o := config.Overrides{
		Backend:  str("db-backend", &opts.DBBackend),
		Host:     str("db-host", &opts.DBHost),
		Socket:   str("db-socket", &opts.DBSocket),
		User:     str("db-user", &opts.DBUser),
		Password: str("db-password", &opts.DBPassword),
		Name:     str("db-name", &opts.DBName),
		Table:    str("db-table", &opts.DBTable),
		Strategy: str("strategy", &opts.Strategy),
	}
	if flags.Changed("db-port") {
		o.Port = &opts.DBPort
	}
	if flags.Changed("include") {
		o.Include = opts.Include
	}
	return o
}

// openStore opens the configured blacklist table, creating it if missing.
func (e *env) openStore(ctx context.Context) (reconcile.Store, func(), error) {
	db := e.cfg.Database
	switch db.Backend {
	case config.BackendSQLite:
		s, err := store.Open(db.Name, db.Table)
		if err != nil {
			return nil, nil, blacklist.StoreError("open database", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				e.log.Error("error closing database", "error", err)
			}
		}, nil
	case config.BackendPostgres:
		s, err := pgstore.Open(ctx, e.cfg.PostgresDSN(), db.Table)
		if err != nil {
			return nil, nil, blacklist.StoreError("open database", err)
		}
		return s, func() {
			if err := s.Close(context.WithoutCancel(ctx)); err != nil {
				e.log.Error("error closing database", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown database backend %q", db.Backend)
	}
}

func (e *env) newSource() (*syncdb.Source, error) {
	return syncdb.New(syncdb.Options{
		CacheDir: e.cfg.Sync.DBPath,
		Repos:    e.cfg.Sync.SyncDBs,
		Servers:  e.cfg.ServerList(),
		Timeout:  e.cfg.Sync.Timeout,
		Logger:   e.log,
	})
}

// newReconciler wires store, source and policy from the config.
func (e *env) newReconciler(st reconcile.Store, src reconcile.Source, force bool) (*reconcile.Reconciler, error) {
	include, err := blacklist.ParseInclude(e.cfg.Sync.Include)
	if err != nil {
		return nil, err
	}
	strategy, err := reconcile.ParseStrategy(e.cfg.Sync.Strategy)
	if err != nil {
		return nil, err
	}
	return reconcile.New(st, src, reconcile.Options{
		Strategy:    strategy,
		Include:     include,
		FoldUnicode: e.cfg.Sync.Fold,
		Force:       force,
		IDs:         e.opts.IDs,
		Logger:      e.log,
	}), nil
}
