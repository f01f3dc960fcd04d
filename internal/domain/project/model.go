package project

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Day is the length of one streak day.
const Day = 24 * time.Hour

// Project is a group commitment with a fixed member cap and duration.
// Version is bumped by every accepted mutation.
type Project struct {
	ID              uint64           `json:"id"`
	Name            string           `json:"name"`
	Theme           string           `json:"theme"`
	Initiator       common.Address   `json:"initiator"`
	TotalStreakDays uint16           `json:"total_streak_days"`
	MaxMembers      uint8            `json:"max_members"`
	Members         []common.Address `json:"members"`
	Finished        bool             `json:"finished"`
	CreatedAt       time.Time        `json:"created_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
	Version         int64            `json:"version"`
}

// HasMember reports whether addr joined the project.
func (p *Project) HasMember(addr common.Address) bool {
	for _, m := range p.Members {
		if m == addr {
			return true
		}
	}
	return false
}

// IsFull reports whether no more members can join.
func (p *Project) IsFull() bool {
	return len(p.Members) >= int(p.MaxMembers)
}

// EndsAt is CreatedAt plus TotalStreakDays days.
func (p *Project) EndsAt() time.Time {
	return p.CreatedAt.Add(time.Duration(p.TotalStreakDays) * Day)
}

// Snapshot returns an immutable copy.
func (p *Project) Snapshot() Snapshot {
	cp := *p
	cp.Members = append(make([]common.Address, 0, len(p.Members)), p.Members...)
	if p.FinishedAt != nil {
		at := *p.FinishedAt
		cp.FinishedAt = &at
	}
	return Snapshot{Project: cp, MemberCount: len(cp.Members)}
}

// Snapshot is a read-only view of a project.
type Snapshot struct {
	Project
	MemberCount int `json:"member_count"`
}
