package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/logging"
)

// Options configures a Reconciler. Zero values select the defaults.
type Options struct {
	Strategy Strategy
	Include  blacklist.Include

	// FoldUnicode folds desired names to Unicode NFC before diffing.
	FoldUnicode bool

	// Force re-downloads repository indexes even when cached copies are fresh.
	Force bool

	IDs    IDGenerator
	Logger *logging.Logger
}

// Reconciler runs reconciliations of one table against one source.
// The store and source are owned by the caller.
type Reconciler struct {
	store  Store
	source Source
	opts   Options
	log    *logging.Logger
}

// New creates a Reconciler. source may be nil when only Apply is used.
func New(store Store, source Source, opts Options) *Reconciler {
	if opts.Strategy == "" {
		opts.Strategy = DefaultStrategy
	}
	if opts.Include == 0 {
		opts.Include = blacklist.DefaultInclude
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	return &Reconciler{
		store:  store,
		source: source,
		opts:   opts,
		log:    logging.OrNop(opts.Logger),
	}
}

// Desired refreshes the source and builds the desired canonical set. It also
// returns the number of package records read.
func (r *Reconciler) Desired(ctx context.Context) (blacklist.Set, int, error) {
	if r.source == nil {
		return nil, 0, blacklist.FetchError("refresh", errors.New("no repository index source configured"))
	}
	if err := r.source.Refresh(ctx, r.opts.Force); err != nil {
		return nil, 0, asError(blacklist.CodeFetch, "refresh", "", err)
	}
	records, err := r.source.Records(ctx)
	if err != nil {
		return nil, 0, asError(blacklist.CodeFetch, "list records", "", err)
	}
	desired, err := blacklist.Build(records, r.opts.Include)
	if err != nil {
		return nil, 0, err
	}
	if r.opts.FoldUnicode {
		desired = blacklist.FoldNFC(desired)
	}
	return desired, len(records), nil
}

// Run performs one full reconciliation: refresh, build, diff and apply.
// On error the table is left as it was before the run.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	runID := r.opts.IDs.Generate()
	log := r.log.With("run_id", runID, "strategy", string(r.opts.Strategy))
	log.Info("reconciliation started", "include", r.opts.Include.String())

	desired, records, err := r.Desired(ctx)
	if err != nil {
		log.Error("reconciliation failed", "error", err)
		return nil, err
	}
	log.Info("desired set built", "records", records, "names", desired.Len())

	rep := r.newReport(runID, records, desired)
	if err := r.apply(ctx, log, desired, rep); err != nil {
		log.Error("reconciliation failed", "error", err)
		return nil, err
	}

	log.Info("reconciliation committed",
		"added", len(rep.Added),
		"removed", len(rep.Removed),
		"inserted", rep.Inserted,
		"deleted", rep.Deleted,
		"fingerprint", rep.Fingerprint,
	)
	return rep, nil
}

// Apply reconciles the table against an already computed desired set.
func (r *Reconciler) Apply(ctx context.Context, desired blacklist.Set) (*Report, error) {
	runID := r.opts.IDs.Generate()
	log := r.log.With("run_id", runID, "strategy", string(r.opts.Strategy))

	rep := r.newReport(runID, 0, desired)
	if err := r.apply(ctx, log, desired, rep); err != nil {
		log.Error("reconciliation failed", "error", err)
		return nil, err
	}
	return rep, nil
}

// Plan computes what Run would change without opening a write scope.
func (r *Reconciler) Plan(ctx context.Context) (*Report, error) {
	runID := r.opts.IDs.Generate()
	log := r.log.With("run_id", runID, "dry_run", true)

	desired, records, err := r.Desired(ctx)
	if err != nil {
		log.Error("plan failed", "error", err)
		return nil, err
	}
	current, err := r.store.ReadAll(ctx)
	if err != nil {
		err = asError(blacklist.CodeStore, "read blacklist", "", err)
		log.Error("plan failed", "error", err)
		return nil, err
	}

	rep := r.newReport(runID, records, desired)
	rep.DryRun = true
	rep.setChanges(current, Diff(current, desired))
	log.Info("plan computed", "added", len(rep.Added), "removed", len(rep.Removed))
	return rep, nil
}

func (r *Reconciler) apply(ctx context.Context, log *logging.Logger, desired blacklist.Set, rep *Report) error {
	for name := range desired {
		if err := blacklist.Validate(name); err != nil {
			return blacklist.InvalidNameError("sanitize", name, err)
		}
	}

	tx, err := r.store.BeginExclusive(ctx)
	if err != nil {
		return asError(blacklist.CodeStore, "begin exclusive", "", err)
	}
	done := false
	defer func() {
		if done {
			return
		}
		// The run's context may already be cancelled; the rollback must still go out.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Error("rollback failed", "error", rbErr)
			return
		}
		log.Warn("transaction rolled back")
	}()

	current, err := tx.ReadAll(ctx)
	if err != nil {
		return asError(blacklist.CodeStore, "read blacklist", "", err)
	}
	changes := Diff(current, desired)
	rep.setChanges(current, changes)
	log.Debug("diff computed", "current", current.Len(), "added", changes.Added.Len(), "removed", changes.Removed.Len())

	switch r.opts.Strategy {
	case Incremental:
		err = applyIncremental(ctx, log, tx, changes, rep)
	case Replace:
		err = applyReplace(ctx, log, tx, desired, rep)
	default:
		err = fmt.Errorf("unknown strategy %q", r.opts.Strategy)
	}
	if err != nil {
		return err
	}

	// A failed commit ends the transaction as well; no rollback follows.
	done = true
	if err := tx.Commit(ctx); err != nil {
		return asError(blacklist.CodeStore, "commit", "", err)
	}
	return nil
}

// applyIncremental inserts every added name, then deletes every removed name.
func applyIncremental(ctx context.Context, log *logging.Logger, tx Tx, changes Changes, rep *Report) error {
	for _, name := range changes.Added.Sorted() {
		if err := tx.Insert(ctx, name); err != nil {
			return asError(blacklist.CodeStore, "insert", name, err)
		}
		log.Debug("inserted", "name", name)
		rep.Inserted++
	}
	for _, name := range changes.Removed.Sorted() {
		if err := tx.Delete(ctx, name); err != nil {
			return asError(blacklist.CodeStore, "delete", name, err)
		}
		log.Debug("deleted", "name", name)
		rep.Deleted++
	}
	return nil
}

// applyReplace empties the table and re-inserts the desired set. Inserts
// ignore names that are already present.
func applyReplace(ctx context.Context, log *logging.Logger, tx Tx, desired blacklist.Set, rep *Report) error {
	n, err := tx.DeleteAll(ctx)
	if err != nil {
		return asError(blacklist.CodeStore, "delete all", "", err)
	}
	rep.Deleted = int(n)
	log.Debug("table emptied", "rows", n)

	for _, name := range desired.Sorted() {
		added, err := tx.InsertIgnore(ctx, name)
		if err != nil {
			return asError(blacklist.CodeStore, "insert", name, err)
		}
		if added {
			rep.Inserted++
		} else {
			rep.Ignored++
		}
	}
	return nil
}

// asError passes *blacklist.Error values through and wraps anything else
// with code.
func asError(code blacklist.Code, op, name string, err error) error {
	var be *blacklist.Error
	if errors.As(err, &be) {
		return err
	}
	return &blacklist.Error{Code: code, Op: op, Name: name, Err: err}
}
