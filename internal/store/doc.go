// Package store provides SQLite-backed storage for the package blacklist.
//
// The blacklist is a single table with one row per canonical package name:
//
//	ID   INTEGER PRIMARY KEY AUTOINCREMENT
//	Name TEXT NOT NULL UNIQUE
//
// The table name is configurable; aurweb deployments call it PackageBlacklist.
//
// # Exclusive Scope
//
// Transactions are opened with BEGIN IMMEDIATE (the _txlock=immediate DSN
// parameter), which takes the database write lock up front. A second writer,
// in this process or another, waits up to busy_timeout for the first to
// commit or roll back, so reads made inside the transaction stay valid until
// it ends.
//
// # Database Configuration
//
//   - WAL mode: readers are not blocked by the writer
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
