// Package pgstore provides PostgreSQL-backed storage for the package
// blacklist, for deployments whose aurweb database runs on Postgres.
//
// The exclusive scope is a transaction that takes LOCK TABLE ... IN EXCLUSIVE
// MODE before reading. Concurrent readers are not blocked; a second writer
// waits until the first transaction ends.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/reconcile"
)

// DefaultTable is the aurweb name of the blacklist table.
const DefaultTable = "PackageBlacklist"

// Store is a reconcile.Store over a Postgres blacklist table.
type Store struct {
	// pgx.Conn is not safe for concurrent use. mu is held for single
	// statements and for the whole life of an open transaction.
	mu    sync.Mutex
	conn  *pgx.Conn
	table string
	q     queries
}

var _ reconcile.Store = (*Store)(nil)

type queries struct {
	create       string
	lock         string
	selectAll    string
	insert       string
	insertIgnore string
	deleteOne    string
	deleteAll    string
}

func newQueries(table string) queries {
	t := pgx.Identifier{table}.Sanitize()
	return queries{
		create:       "CREATE TABLE IF NOT EXISTS " + t + " (ID BIGSERIAL PRIMARY KEY, Name TEXT NOT NULL UNIQUE)",
		lock:         "LOCK TABLE " + t + " IN EXCLUSIVE MODE",
		selectAll:    "SELECT Name FROM " + t + " ORDER BY Name",
		insert:       "INSERT INTO " + t + " (Name) VALUES ($1)",
		insertIgnore: "INSERT INTO " + t + " (Name) VALUES ($1) ON CONFLICT (Name) DO NOTHING",
		deleteOne:    "DELETE FROM " + t + " WHERE Name = $1",
		deleteAll:    "DELETE FROM " + t,
	}
}

// Open connects to the database at dsn and ensures the blacklist table exists.
// An empty table selects DefaultTable.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	s := &Store{conn: conn, table: table, q: newQueries(table)}
	if _, err := conn.Exec(ctx, s.q.create); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// Close closes the connection.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close(ctx)
}

// Table returns the blacklist table name.
func (s *Store) Table() string {
	return s.table
}

// ReadAll returns the names currently in the table.
func (s *Store) ReadAll(ctx context.Context) (blacklist.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readAll(ctx, s.conn, s.q.selectAll)
}

// BeginExclusive opens a transaction and locks the table against other writers.
func (s *Store) BeginExclusive(ctx context.Context) (reconcile.Tx, error) {
	s.mu.Lock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, mapError("begin exclusive", "", err)
	}
	if _, err := tx.Exec(ctx, s.q.lock); err != nil {
		tx.Rollback(context.WithoutCancel(ctx))
		s.mu.Unlock()
		return nil, mapError("lock table", "", err)
	}
	return &Tx{store: s, tx: tx}, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func readAll(ctx context.Context, q queryer, query string) (blacklist.Set, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, mapError("read blacklist", "", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError("read blacklist", "", err)
	}
	return blacklist.NewSet(names...), nil
}

// Tx is an open exclusive transaction on the blacklist table.
type Tx struct {
	store *Store
	tx    pgx.Tx
	done  bool
}

func (t *Tx) ReadAll(ctx context.Context) (blacklist.Set, error) {
	return readAll(ctx, t.tx, t.store.q.selectAll)
}

func (t *Tx) Insert(ctx context.Context, name string) error {
	if _, err := t.tx.Exec(ctx, t.store.q.insert, name); err != nil {
		return mapError("insert", name, err)
	}
	return nil
}

func (t *Tx) InsertIgnore(ctx context.Context, name string) (bool, error) {
	tag, err := t.tx.Exec(ctx, t.store.q.insertIgnore, name)
	if err != nil {
		return false, mapError("insert", name, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *Tx) Delete(ctx context.Context, name string) error {
	if _, err := t.tx.Exec(ctx, t.store.q.deleteOne, name); err != nil {
		return mapError("delete", name, err)
	}
	return nil
}

func (t *Tx) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := t.tx.Exec(ctx, t.store.q.deleteAll)
	if err != nil {
		return 0, mapError("delete all", "", err)
	}
	return tag.RowsAffected(), nil
}

func (t *Tx) Commit(ctx context.Context) error {
	defer t.release()
	if err := t.tx.Commit(ctx); err != nil {
		return mapError("commit", "", err)
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	defer t.release()
	if err := t.tx.Rollback(ctx); err != nil {
		return mapError("rollback", "", err)
	}
	return nil
}

func (t *Tx) release() {
	if !t.done {
		t.done = true
		t.store.mu.Unlock()
	}
}

// mapError converts driver errors to the blacklist error taxonomy.
func mapError(op, name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "23505" {
		return blacklist.DuplicateKeyError(op, name, err) // unique_violation
	}
	return &blacklist.Error{Code: blacklist.CodeStore, Op: op, Name: name, Err: err}
}
