// Package blacklist defines the canonical name model shared by every blup
// component: package references, canonical names, name sets, and the error
// taxonomy reported by reconciliation runs.
//
// # Canonical Names
//
// A package reference may carry a version constraint ("foo>=1.2", "bar=3").
// Normalize strips everything from the first '<', '=' or '>' onward. When the
// stripped prefix would be empty the reference is kept unmodified, so a
// canonical name is never empty. Two references with the same canonical name
// are the same blacklist entry.
//
// # Canonical Sets
//
// Build flattens PackageRecords into a Set. Which record fields contribute
// (name, provides, replaces) is a policy chosen by the caller through Include.
// A Set is unordered; Sorted exists for deterministic output and tests.
//
// # Errors
//
// Every failure that aborts a run is an *Error carrying one of the codes
// FETCH_ERROR, STORE_ERROR, DUPLICATE_KEY or INVALID_NAME. Use the Is*
// predicates rather than comparing codes directly; they see through wrapping.
package blacklist
