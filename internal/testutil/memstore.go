package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/reconcile"
)

// Op names a MemStore operation for fault injection and call counting.
type Op string

const (
	OpReadAll      Op = "read_all"
	OpBegin        Op = "begin"
	OpTxReadAll    Op = "tx_read_all"
	OpInsert       Op = "insert"
	OpInsertIgnore Op = "insert_ignore"
	OpDelete       Op = "delete"
	OpDeleteAll    Op = "delete_all"
	OpCommit       Op = "commit"
	OpRollback     Op = "rollback"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault")

var errTxDone = errors.New("transaction already finished")

type fault struct {
	op    Op
	after int
	err   error
}

// MemStore is an in-memory reconcile.Store with injectable faults.
//
// Exclusive scopes are serialized by a one-slot semaphore and changes are
// staged per transaction, so a failure before Commit leaves the committed
// names untouched, like a real transactional table.
type MemStore struct {
	sem chan struct{}

	mu     sync.Mutex
	rows   blacklist.Set
	calls  map[Op]int
	faults []fault
}

var _ reconcile.Store = (*MemStore)(nil)

// NewMemStore creates a store whose table holds names.
func NewMemStore(names ...string) *MemStore {
	return &MemStore{
		sem:   make(chan struct{}, 1),
		rows:  blacklist.NewSet(names...),
		calls: make(map[Op]int),
	}
}

// FailOn makes the call to op after `after` successful calls fail with err
// (ErrInjected if nil). The fault fires once.
func (s *MemStore) FailOn(op Op, after int, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{op: op, after: after, err: err})
}

// Names returns a copy of the committed table contents.
func (s *MemStore) Names() blacklist.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.rows)
}

// Calls returns how many times op was invoked, including failed calls.
func (s *MemStore) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ReadAll implements reconcile.Store.
func (s *MemStore) ReadAll(ctx context.Context) (blacklist.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit(OpReadAll); err != nil {
		return nil, err
	}
	return copySet(s.rows), nil
}

// BeginExclusive implements reconcile.Store. It blocks while another
// transaction is open.
func (s *MemStore) BeginExclusive(ctx context.Context) (reconcile.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, blacklist.StoreError(string(OpBegin), ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit(OpBegin); err != nil {
		<-s.sem
		return nil, err
	}
	return &memTx{store: s, work: copySet(s.rows)}, nil
}

// hit counts a call and returns the injected fault for it, if any.
// The caller must hold s.mu.
func (s *MemStore) hit(op Op) error {
	n := s.calls[op]
	s.calls[op] = n + 1
	for i, f := range s.faults {
		if f.op == op && f.after == n {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return blacklist.StoreError(string(op), f.err)
		}
	}
	return nil
}

type memTx struct {
	store *MemStore
	work  blacklist.Set
	done  bool
}

func (tx *memTx) begin(op Op) error {
	tx.store.mu.Lock()
	if tx.done {
		tx.store.calls[op]++
		tx.store.mu.Unlock()
		return blacklist.StoreError(string(op), errTxDone)
	}
	err := tx.store.hit(op)
	tx.store.mu.Unlock()
	return err
}

func (tx *memTx) ReadAll(ctx context.Context) (blacklist.Set, error) {
	if err := tx.begin(OpTxReadAll); err != nil {
		return nil, err
	}
	return copySet(tx.work), nil
}

func (tx *memTx) Insert(ctx context.Context, name string) error {
	if err := tx.begin(OpInsert); err != nil {
		return err
	}
	if tx.work.Has(name) {
		return blacklist.DuplicateKeyError(string(OpInsert), name, errors.New("name already present"))
	}
	tx.work.Add(name)
	return nil
}

func (tx *memTx) InsertIgnore(ctx context.Context, name string) (bool, error) {
	if err := tx.begin(OpInsertIgnore); err != nil {
		return false, err
	}
	if tx.work.Has(name) {
		return false, nil
	}
	tx.work.Add(name)
	return true, nil
}

func (tx *memTx) Delete(ctx context.Context, name string) error {
	if err := tx.begin(OpDelete); err != nil {
		return err
	}
	delete(tx.work, name)
	return nil
}

func (tx *memTx) DeleteAll(ctx context.Context) (int64, error) {
	if err := tx.begin(OpDeleteAll); err != nil {
		return 0, err
	}
	n := int64(tx.work.Len())
	tx.work = make(blacklist.Set)
	return n, nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	if err := tx.begin(OpCommit); err != nil {
		tx.finish(false)
		return err
	}
	tx.finish(true)
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	if err := tx.begin(OpRollback); err != nil {
		if !tx.done {
			tx.finish(false)
		}
		return err
	}
	tx.finish(false)
	return nil
}

// finish releases the exclusive scope, publishing the staged rows if commit.
func (tx *memTx) finish(commit bool) {
	if tx.done {
		return
	}
	tx.store.mu.Lock()
	if commit {
		tx.store.rows = tx.work
	}
	tx.done = true
	tx.store.mu.Unlock()
	<-tx.store.sem
}

func copySet(s blacklist.Set) blacklist.Set {
	out := make(blacklist.Set, len(s))
	for name := range s {
		out[name] = struct{}{}
	}
	return out
}
