package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/reconcile"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - UNIQUE index on Name for tables created without the constraint
const currentSchemaVersion = 1

// DefaultTable is the aurweb name of the blacklist table.
const DefaultTable = "PackageBlacklist"

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a reconcile.Store over a SQLite blacklist table.
type Store struct {
	db    *sql.DB
	table string
	q     queries
}

var _ reconcile.Store = (*Store)(nil)

// queries holds the statements for one table, built once at Open.
type queries struct {
	selectAll    string
	insert       string
	insertIgnore string
	deleteOne    string
	deleteAll    string
}

func newQueries(table string) queries {
	t := quoteIdent(table)
	return queries{
		selectAll:    "SELECT Name FROM " + t + " ORDER BY Name",
		insert:       "INSERT INTO " + t + " (Name) VALUES (?)",
		insertIgnore: "INSERT INTO " + t + " (Name) VALUES (?) ON CONFLICT (Name) DO NOTHING",
		deleteOne:    "DELETE FROM " + t + " WHERE Name = ?",
		deleteAll:    "DELETE FROM " + t,
	}
}

// Open creates or opens a SQLite database at path and ensures the blacklist
// table exists. An empty table selects DefaultTable.
//
// This function is idempotent - safe to call multiple times.
func Open(path, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite3", path+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also serializes
	// exclusive scopes opened through the same Store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db, table); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, table: table, q: newQueries(table)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Table returns the blacklist table name.
func (s *Store) Table() string {
	return s.table
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ReadAll returns the names currently in the table.
func (s *Store) ReadAll(ctx context.Context) (blacklist.Set, error) {
	return readAll(ctx, s.db, s.q.selectAll)
}

// BeginExclusive opens a write transaction holding the database write lock.
func (s *Store) BeginExclusive(ctx context.Context) (reconcile.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError("begin exclusive", "", err)
	}
	return &Tx{tx: tx, q: s.q}, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readAll(ctx context.Context, db querier, query string) (blacklist.Set, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError("read blacklist", "", err)
	}
	defer rows.Close()

	set := blacklist.NewSet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError("read blacklist", "", err)
		}
		set.Add(name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("read blacklist", "", err)
	}
	return set, nil
}

// Tx is an open exclusive transaction on the blacklist table.
type Tx struct {
	tx *sql.Tx
	q  queries
}

// ReadAll returns the names visible inside the transaction.
func (t *Tx) ReadAll(ctx context.Context) (blacklist.Set, error) {
	return readAll(ctx, t.tx, t.q.selectAll)
}

// Insert adds name. A name already present is a DUPLICATE_KEY error.
func (t *Tx) Insert(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, t.q.insert, name); err != nil {
		return mapError("insert", name, err)
	}
	return nil
}

// InsertIgnore adds name unless present and reports whether a row was added.
func (t *Tx) InsertIgnore(ctx context.Context, name string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, t.q.insertIgnore, name)
	if err != nil {
		return false, mapError("insert", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError("insert", name, err)
	}
	return n > 0, nil
}

// Delete removes name. Deleting an absent name is not an error.
func (t *Tx) Delete(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, t.q.deleteOne, name); err != nil {
		return mapError("delete", name, err)
	}
	return nil
}

// DeleteAll empties the table and returns the number of rows removed.
func (t *Tx) DeleteAll(ctx context.Context) (int64, error) {
	res, err := t.tx.ExecContext(ctx, t.q.deleteAll)
	if err != nil {
		return 0, mapError("delete all", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError("delete all", "", err)
	}
	return n, nil
}

// Commit makes the transaction's changes visible.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError("commit", "", err)
	}
	return nil
}

// Rollback discards the transaction's changes.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return mapError("rollback", "", err)
	}
	return nil
}

// mapError converts driver errors to the blacklist error taxonomy.
func mapError(op, name string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return blacklist.DuplicateKeyError(op, name, err)
	}
	return &blacklist.Error{Code: blacklist.CodeStore, Op: op, Name: name, Err: err}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the table if it doesn't exist and runs migrations.
func applySchema(db *sql.DB, table string) error {
	if _, err := db.Exec(fmt.Sprintf(schemaSQL, quoteIdent(table))); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db, table); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB, table string) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// user_version is per file but migrations are per table, so they run for
	// the opened table on every Open. Each one must be idempotent.
	if err := migrateToV1(db, table); err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds a UNIQUE index on Name. Tables created by this package
// already carry the constraint; tables created by hand may not.
func migrateToV1(db *sql.DB, table string) error {
	_, err := db.Exec(fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (Name)",
		quoteIdent(uniqueIndexName(table)), quoteIdent(table),
	))
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

func uniqueIndexName(table string) string {
	return "idx_" + strings.ToLower(table) + "_name_unique"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
