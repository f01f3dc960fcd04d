package checkin

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
)

// ProjectReader loads projects with their member list.
type ProjectReader interface {
	Get(ctx context.Context, id uint64) (*project.Project, error)
}

// MembershipReader loads a member's streak state.
type MembershipReader interface {
	Get(ctx context.Context, projectID uint64, member common.Address) (*membership.Membership, error)
}

// SignatureVerifier checks that sig over digest was produced by signer.
type SignatureVerifier interface {
	Verify(signer common.Address, digest common.Hash, sig []byte) error
}

// Repository persists accepted check-ins.
//
// Record updates the membership streak, appends the audit row and the entry in
// one transaction. It returns repository.ErrConflict when the project version
// moved and repository.ErrDuplicate when the member already has a row for Day.
type Repository interface {
	Record(ctx context.Context, c *CheckIn, expectedVersion int64, entry *activity.ActivityEntry) error
	List(ctx context.Context, projectID uint64, member common.Address, offset, limit int) ([]CheckIn, error)
}
