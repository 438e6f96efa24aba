package testutil

import (
	"context"
	"sync"

	"github.com/roach88/blup/internal/blacklist"
	"github.com/roach88/blup/internal/reconcile"
)

// StaticSource is a reconcile.Source serving fixed records.
type StaticSource struct {
	mu         sync.Mutex
	packages   []blacklist.PackageRecord
	refreshErr error
	recordsErr error
	refreshes  int
	forced     int
}

var _ reconcile.Source = (*StaticSource)(nil)

// NewStaticSource creates a source listing records.
func NewStaticSource(records ...blacklist.PackageRecord) *StaticSource {
	return &StaticSource{packages: records}
}

// SetRecords replaces the served records.
func (s *StaticSource) SetRecords(records ...blacklist.PackageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages = records
}

// FailRefresh makes every Refresh return err.
func (s *StaticSource) FailRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
}

// FailRecords makes every Records call return err.
func (s *StaticSource) FailRecords(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordsErr = err
}

// Refreshes returns the number of Refresh calls and how many were forced.
func (s *StaticSource) Refreshes() (total, forced int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes, s.forced
}

func (s *StaticSource) Refresh(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if force {
		s.forced++
	}
	return s.refreshErr
}

func (s *StaticSource) Records(ctx context.Context) ([]blacklist.PackageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordsErr != nil {
		return nil, s.recordsErr
	}
	return append([]blacklist.PackageRecord(nil), s.packages...), nil
}
