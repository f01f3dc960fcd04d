package checkin

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Request is a signed daily check-in.
type Request struct {
	ProjectID uint64
	ProofHash string
	Timestamp int64
	Signature []byte
	Caller    common.Address
}

// CheckIn is the audit record of an accepted check-in.
type CheckIn struct {
	ProjectID  uint64         `json:"project_id"`
	Member     common.Address `json:"member"`
	ProofHash  string         `json:"proof_hash"`
	Timestamp  int64          `json:"timestamp"`
	Day        int64          `json:"day"`
	Signature  []byte         `json:"signature"`
	Streak     uint32         `json:"streak"`
	RecordedAt time.Time      `json:"recorded_at"`
}
