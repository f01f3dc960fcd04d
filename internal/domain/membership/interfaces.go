package membership

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
)

// ProjectReader loads projects with their ordered member list.
type ProjectReader interface {
	Get(ctx context.Context, id uint64) (*project.Project, error)
}

// Repository provides persistence for memberships.
//
// Add returns repository.ErrConflict when the project version moved,
// repository.ErrDuplicate when the member already joined and
// repository.ErrCapacity when Position is not below MaxMembers.
type Repository interface {
	Add(ctx context.Context, m *Membership, expectedVersion int64, entry *activity.ActivityEntry) error
	Get(ctx context.Context, projectID uint64, member common.Address) (*Membership, error)
	ListByMember(ctx context.Context, member common.Address, offset, limit int) ([]uint64, error)
	ListByProject(ctx context.Context, projectID uint64) ([]Membership, error)
}
