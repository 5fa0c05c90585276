package mock

import (
	"github.com/fwojciec/siteqa/retrieve"
	"github.com/fwojciec/siteqa/tfidf"
)

var _ retrieve.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of retrieve.SnapshotStore.
type SnapshotStore struct {
	SaveSnapshotFn func(s *tfidf.Snapshot) error
	LoadSnapshotFn func() (*tfidf.Snapshot, error)
}

func (s *SnapshotStore) SaveSnapshot(snap *tfidf.Snapshot) error {
	return s.SaveSnapshotFn(snap)
}

func (s *SnapshotStore) LoadSnapshot() (*tfidf.Snapshot, error) {
	return s.LoadSnapshotFn()
}
