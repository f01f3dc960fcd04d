package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"
	"github.com/rpggio/cotime/internal/domain/activity"
)

// ActivityRepository implements activity.Repository in memory.
type ActivityRepository struct {
	store *Store
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(store *Store) *ActivityRepository {
	return &ActivityRepository{store: store}
}

// List returns entries matching opts, oldest first.
func (r *ActivityRepository) List(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	var (
		it  memdb.ResultIterator
		err error
	)
	if opts.ProjectID != nil {
		it, err = txn.Get(tableActivity, indexProject, *opts.ProjectID)
	} else {
		it, err = txn.Get(tableActivity, indexID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}

	entries := []activity.ActivityEntry{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		entry := raw.(*activity.ActivityEntry)
		if entry.Seq <= opts.AfterSeq {
			continue
		}
		if opts.Member != nil && entry.Member != *opts.Member {
			continue
		}
		if opts.ActivityType != nil && entry.ActivityType != *opts.ActivityType {
			continue
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}
