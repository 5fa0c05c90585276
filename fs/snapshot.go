// Package fs provides file-based storage for index snapshots and corpus exports.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/retrieve"
	"github.com/fwojciec/siteqa/tfidf"
	"github.com/gofrs/flock"
)

// SnapshotFile is the name of the persisted snapshot inside the data directory.
const SnapshotFile = "index.snapshot"

// Ensure SnapshotStore implements retrieve.SnapshotStore at compile time.
var _ retrieve.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore persists a single index snapshot in a directory.
//
// Snapshots are written to a temporary file and renamed into place, so a
// reader never sees a partial file. A lock file serializes writers across
// processes (for example a CLI reindex while the server is running).
type SnapshotStore struct {
	dir  string
	lock *flock.Flock
}

// NewSnapshotStore creates a store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, SnapshotFile+".lock")),
	}
}

// Path returns the location of the snapshot file.
func (s *SnapshotStore) Path() string {
	return filepath.Join(s.dir, SnapshotFile)
}

// SaveSnapshot atomically replaces the persisted snapshot with snap.
func (s *SnapshotStore) SaveSnapshot(snap *tfidf.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock snapshot: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp, err := os.CreateTemp(s.dir, SnapshotFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := tfidf.Encode(tmp, snap); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted snapshot.
// Returns ENOTFOUND if none has been saved.
func (s *SnapshotStore) LoadSnapshot() (*tfidf.Snapshot, error) {
	f, err := os.Open(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, siteqa.Errorf(siteqa.ENOTFOUND, "no snapshot in %s", s.dir)
	} else if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return tfidf.Decode(f)
}

// Remove deletes the persisted snapshot, if any.
func (s *SnapshotStore) Remove() error {
	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock snapshot: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
