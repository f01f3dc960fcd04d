// Package memstore keeps projects, memberships and the activity log in an
// in-memory go-memdb database. Write transactions are serialized by memdb and
// readers see consistent snapshots.
package memstore

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/repository"
)

const (
	counterProjectID   = "project_id"
	counterActivitySeq = "activity_seq"
)

// Store is an in-memory database shared by the memstore repositories.
type Store struct {
	db *memdb.MemDB
}

// New creates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("creating memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// next returns the counter's current value and stores value+1.
func next(txn *memdb.Txn, name string) (uint64, error) {
	var current uint64
	raw, err := txn.First(tableCounters, indexID, name)
	if err != nil {
		return 0, fmt.Errorf("reading counter %s: %w", name, err)
	}
	if raw != nil {
		current = raw.(*counterRecord).Value
	}
	if err := txn.Insert(tableCounters, &counterRecord{Name: name, Value: current + 1}); err != nil {
		return 0, fmt.Errorf("updating counter %s: %w", name, err)
	}
	return current, nil
}

func getProject(txn *memdb.Txn, id uint64) (*projectRecord, error) {
	raw, err := txn.First(tableProjects, indexID, id)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return raw.(*projectRecord), nil
}

// bumpVersion stores a copy of the project with Version+1 if it still equals expected.
func bumpVersion(txn *memdb.Txn, projectID uint64, expected int64) (*projectRecord, error) {
	current, err := getProject(txn, projectID)
	if err != nil {
		return nil, err
	}
	if current.Version != expected {
		return nil, repository.ErrConflict
	}
	updated := *current
	updated.Version++
	if err := txn.Insert(tableProjects, &updated); err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return &updated, nil
}

// logActivity appends a copy of entry and fills its Seq.
func logActivity(txn *memdb.Txn, entry *activity.ActivityEntry) error {
	seq, err := next(txn, counterActivitySeq)
	if err != nil {
		return err
	}
	entry.Seq = int64(seq) + 1
	stored := *entry
	if err := txn.Insert(tableActivity, &stored); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}
