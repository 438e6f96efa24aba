package pgstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/reconcile"
)

func TestMapError(t *testing.T) {
	dup := mapError("insert", "vim", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	assert.True(t, blacklist.IsDuplicateKey(dup))
	assert.Contains(t, dup.Error(), `insert "vim"`)

	other := mapError("commit", "", &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	assert.True(t, blacklist.IsStoreError(other))

	plain := mapError("read blacklist", "", errors.New("conn closed"))
	assert.True(t, blacklist.IsStoreError(plain))
	assert.EqualError(t, plain, "read blacklist: conn closed")
}

func TestQueries_QuoteTable(t *testing.T) {
	q := newQueries("PackageBlacklist")
	assert.Equal(t, `LOCK TABLE "PackageBlacklist" IN EXCLUSIVE MODE`, q.lock)
	assert.Equal(t, `INSERT INTO "PackageBlacklist" (Name) VALUES ($1) ON CONFLICT (Name) DO NOTHING`, q.insertIgnore)
}

// openTestStore connects to BLUP_TEST_POSTGRES_DSN and creates a fresh
// table that is dropped when the test ends.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("BLUP_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BLUP_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	table := fmt.Sprintf("blup_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, dsn, table)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.conn.Exec(ctx, "DROP TABLE IF EXISTS "+table)
		s.Close(ctx)
	})
	return s
}

func TestStore_Reconcile(t *testing.T) {
	for _, strategy := range []reconcile.Strategy{reconcile.Incremental, reconcile.Replace} {
		t.Run(string(strategy), func(t *testing.T) {
			s := openTestStore(t)
			ctx := context.Background()

			r := reconcile.New(s, nil, reconcile.Options{Strategy: strategy})
			_, err := r.Apply(ctx, blacklist.NewSet("foo", "bar"))
			require.NoError(t, err)

			rep, err := r.Apply(ctx, blacklist.NewSet("bar", "baz"))
			require.NoError(t, err)
			assert.Equal(t, []string{"baz"}, rep.Added)
			assert.Equal(t, []string{"foo"}, rep.Removed)

			got, err := s.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, blacklist.NewSet("bar", "baz"), got)
		})
	}
}

func TestStore_DuplicateAndRollback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginExclusive(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, "vim"))
	require.NoError(t, tx.Commit(ctx))

	tx, err = s.BeginExclusive(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, "emacs"))
	err = tx.Insert(ctx, "vim")
	assert.True(t, blacklist.IsDuplicateKey(err), "got %v", err)
	require.NoError(t, tx.Rollback(ctx))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, blacklist.NewSet("vim"), got)
}
