// Package reconcile brings the persisted blacklist table in line with the
// canonical name set computed from the repository indexes.
//
// A run is one linear sequence:
//
//  1. Refresh the repository indexes and list their package records.
//  2. Build the desired canonical set.
//  3. Open the table's exclusive scope and read the current set inside it.
//  4. Diff and apply, then commit.
//
// The exclusive scope (a write-locking transaction) is the only mutation
// boundary. It guarantees at most one run mutates the table at a time and that
// readers observe either the old set or the new set, never a mix. Any error
// rolls the scope back and fails the run; nothing is retried.
//
// # Strategies
//
// Incremental inserts desired-current and deletes current-desired.
// Replace deletes every row and re-inserts the desired set with insert-ignore
// semantics. Both leave the table equal to the desired set and are
// idempotent: a second run with the same desired set changes nothing.
package reconcile
