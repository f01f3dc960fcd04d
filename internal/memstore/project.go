package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-memdb"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
)

// ProjectRepository implements project.Repository in memory.
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// Create allocates the next id and stores the project with its entry.
func (r *ProjectRepository) Create(_ context.Context, proj *project.Project, entry *activity.ActivityEntry) error {
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	id, err := next(txn, counterProjectID)
	if err != nil {
		return err
	}

	rec := &projectRecord{
		ID:              id,
		Name:            proj.Name,
		Theme:           proj.Theme,
		Initiator:       proj.Initiator.Hex(),
		TotalStreakDays: proj.TotalStreakDays,
		MaxMembers:      proj.MaxMembers,
		CreatedAt:       proj.CreatedAt,
		Version:         1,
	}
	if err := txn.Insert(tableProjects, rec); err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	if err := entry.AssignProject(id); err != nil {
		return err
	}
	entry.Tick = 1
	if err := logActivity(txn, entry); err != nil {
		return err
	}
	txn.Commit()

	proj.ID = id
	proj.Version = 1
	return nil
}

// Get returns a project with its members in join order.
func (r *ProjectRepository) Get(_ context.Context, id uint64) (*project.Project, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	rec, err := getProject(txn, id)
	if err != nil {
		return nil, err
	}
	return toProject(txn, rec)
}

// List returns projects in id order.
func (r *ProjectRepository) List(_ context.Context, offset, limit int) ([]project.Project, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableProjects, indexID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	var recs []*projectRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		recs = append(recs, raw.(*projectRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	out := []project.Project{}
	for _, rec := range page(recs, offset, limit) {
		proj, err := toProject(txn, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *proj)
	}
	return out, nil
}

// Count returns the number of projects.
func (r *ProjectRepository) Count(_ context.Context) (uint64, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableProjects, indexID)
	if err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	var n uint64
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n, nil
}

// MarkFinished flags the project finished if its version still matches.
func (r *ProjectRepository) MarkFinished(_ context.Context, id uint64, expectedVersion int64, finishedAt time.Time, entry *activity.ActivityEntry) error {
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	rec, err := bumpVersion(txn, id, expectedVersion)
	if err != nil {
		return err
	}
	at := finishedAt
	rec.Finished = true
	rec.FinishedAt = &at
	if err := txn.Insert(tableProjects, rec); err != nil {
		return fmt.Errorf("finishing project: %w", err)
	}

	entry.Tick = rec.Version
	if err := logActivity(txn, entry); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func toProject(txn *memdb.Txn, rec *projectRecord) (*project.Project, error) {
	members, err := projectMembers(txn, rec.ID)
	if err != nil {
		return nil, err
	}
	proj := &project.Project{
		ID:              rec.ID,
		Name:            rec.Name,
		Theme:           rec.Theme,
		Initiator:       common.HexToAddress(rec.Initiator),
		TotalStreakDays: rec.TotalStreakDays,
		MaxMembers:      rec.MaxMembers,
		Members:         make([]common.Address, 0, len(members)),
		Finished:        rec.Finished,
		CreatedAt:       rec.CreatedAt,
		Version:         rec.Version,
	}
	if rec.FinishedAt != nil {
		at := *rec.FinishedAt
		proj.FinishedAt = &at
	}
	for _, m := range members {
		proj.Members = append(proj.Members, common.HexToAddress(m.Member))
	}
	return proj, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
