package membership

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Membership is a member's standing in one project.
// A positive Streak implies LastCheckInDay is set.
type Membership struct {
	ProjectID      uint64         `json:"project_id"`
	Member         common.Address `json:"member"`
	Position       int            `json:"position"`
	JoinedAt       time.Time      `json:"joined_at"`
	LastCheckInDay *int64         `json:"last_checkin_day,omitempty"`
	Streak         uint32         `json:"streak"`
	CheckIns       uint32         `json:"checkins"`
	LastProofHash  string         `json:"last_proof_hash,omitempty"`
}
