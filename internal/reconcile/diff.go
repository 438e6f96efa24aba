package reconcile

import "github.com/roach88/blup/internal/blacklist"

// Changes is the difference between the current and the desired set.
type Changes struct {
	Added   blacklist.Set
	Removed blacklist.Set
}

// Diff computes Added = desired - current and Removed = current - desired.
// Neither set contains duplicates, so applying Added never trips the table's
// unique constraint.
func Diff(current, desired blacklist.Set) Changes {
	return Changes{
		Added:   desired.Minus(current),
		Removed: current.Minus(desired),
	}
}

// Empty reports whether the diff is a no-op.
func (c Changes) Empty() bool {
	return c.Added.Len() == 0 && c.Removed.Len() == 0
}
