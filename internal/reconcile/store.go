package reconcile

import (
	"context"

	"github.com/roach88/blup/internal/blacklist"
)

// Store is the persisted blacklist table.
type Store interface {
	// ReadAll returns every name in the table outside of any write scope.
	ReadAll(ctx context.Context) (blacklist.Set, error)

	// BeginExclusive opens a transaction holding the table's write lock.
	// It blocks while another exclusive scope is open.
	BeginExclusive(ctx context.Context) (Tx, error)
}

// Tx is an exclusive write scope. Changes become visible to readers only on
// Commit; Rollback discards them. Errors are *blacklist.Error values.
type Tx interface {
	ReadAll(ctx context.Context) (blacklist.Set, error)

	// Insert adds name, failing with DUPLICATE_KEY if it already exists.
	Insert(ctx context.Context, name string) error

	// InsertIgnore adds name unless it already exists. It reports whether a
	// row was added.
	InsertIgnore(ctx context.Context, name string) (bool, error)

	Delete(ctx context.Context, name string) error

	// DeleteAll empties the table and returns the number of rows removed.
	DeleteAll(ctx context.Context) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Source is the aggregated set of repository indexes.
type Source interface {
	// Refresh brings the local copy of every index up to date. With force
	// set, cached copies are downloaded again unconditionally.
	Refresh(ctx context.Context, force bool) error

	// Records lists the package records of all indexes as one sequence.
	Records(ctx context.Context) ([]blacklist.PackageRecord, error)
}
