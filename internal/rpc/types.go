package rpc

import (
	"time"

	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
)

// Signed carries the caller identity for create, join and finish.
// Signature is a 0x-prefixed 65-byte EIP-191 signature over the action digest.
type Signed struct {
	Caller    string
	Timestamp int64
	Signature string
}

type CreateProjectParams struct {
	Name            string `json:"name" jsonschema:"project name, 1 to 16 characters"`
	Theme           string `json:"theme" jsonschema:"what members commit to do each day"`
	TotalStreakDays int    `json:"total_streak_days" jsonschema:"duration in days, 1 to 365"`
	MaxMembers      int    `json:"max_members" jsonschema:"member cap, 1 to 255"`
	Caller          string `json:"caller" jsonschema:"caller address, 0x-prefixed"`
	Timestamp       int64  `json:"timestamp,omitempty" jsonschema:"unix seconds the signature was made"`
	Signature       string `json:"signature,omitempty" jsonschema:"0x-prefixed signature over the action digest"`
}

func (p CreateProjectParams) signed() Signed {
	return Signed{Caller: p.Caller, Timestamp: p.Timestamp, Signature: p.Signature}
}

type JoinProjectParams struct {
	ProjectID uint64 `json:"project_id"`
	Caller    string `json:"caller" jsonschema:"caller address, 0x-prefixed"`
	Timestamp int64  `json:"timestamp,omitempty" jsonschema:"unix seconds the signature was made"`
	Signature string `json:"signature,omitempty" jsonschema:"0x-prefixed signature over the action digest"`
}

func (p JoinProjectParams) signed() Signed {
	return Signed{Caller: p.Caller, Timestamp: p.Timestamp, Signature: p.Signature}
}

type FinishProjectParams struct {
	ProjectID uint64 `json:"project_id"`
	Caller    string `json:"caller" jsonschema:"caller address, 0x-prefixed"`
	Timestamp int64  `json:"timestamp,omitempty" jsonschema:"unix seconds the signature was made"`
	Signature string `json:"signature,omitempty" jsonschema:"0x-prefixed signature over the action digest"`
}

func (p FinishProjectParams) signed() Signed {
	return Signed{Caller: p.Caller, Timestamp: p.Timestamp, Signature: p.Signature}
}

type CheckInParams struct {
	ProjectID uint64 `json:"project_id"`
	ProofHash string `json:"proof_hash" jsonschema:"content hash of the day's proof"`
	Timestamp int64  `json:"timestamp" jsonschema:"unix seconds the check-in was signed"`
	Signature string `json:"signature" jsonschema:"0x-prefixed signature over the check-in digest"`
	Caller    string `json:"caller" jsonschema:"member address, 0x-prefixed"`
}

type GetProjectParams struct {
	ProjectID uint64 `json:"project_id"`
}

type ListProjectsParams struct {
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

type GetMyProjectsParams struct {
	Member string `json:"member" jsonschema:"member address, 0x-prefixed"`
	Offset int    `json:"offset,omitempty"`
	Limit  *int   `json:"limit,omitempty" jsonschema:"page size; omitted means the default, 0 returns an empty page"`
}

type GetMembershipParams struct {
	ProjectID uint64 `json:"project_id"`
	Member    string `json:"member"`
}

type ListMembersParams struct {
	ProjectID uint64 `json:"project_id"`
}

type ListCheckInsParams struct {
	ProjectID uint64 `json:"project_id"`
	Member    string `json:"member"`
	Offset    int    `json:"offset,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ListEventsParams struct {
	ProjectID *uint64 `json:"project_id,omitempty"`
	Member    *string `json:"member,omitempty"`
	Type      *string `json:"type,omitempty" jsonschema:"project_created, project_joined, checkin_success or project_finished"`
	AfterSeq  int64   `json:"after_seq,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// EmptyParams is used by methods that take no arguments.
type EmptyParams struct{}

type ProjectListResponse struct {
	Projects []project.Snapshot `json:"projects"`
	Total    uint64             `json:"total"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type MembershipStatusResponse struct {
	IsMember   bool                   `json:"is_member"`
	Membership *membership.Membership `json:"membership,omitempty"`
}

type MembersResponse struct {
	ProjectID uint64                  `json:"project_id"`
	Members   []membership.Membership `json:"members"`
}

type CheckInResponse struct {
	ProjectID uint64 `json:"project_id"`
	Member    string `json:"member"`
	Streak    uint32 `json:"streak"`
}

type CheckInsResponse struct {
	CheckIns []checkin.CheckIn `json:"checkins"`
}

type FinishResponse struct {
	ProjectID  uint64    `json:"project_id"`
	FinishedAt time.Time `json:"finished_at"`
}

type MyProjectsResponse struct {
	ProjectIDs []uint64 `json:"project_ids"`
	Exhausted  bool     `json:"exhausted"`
}

type EventsResponse struct {
	Events  []activity.ActivityEntry `json:"events"`
	LastSeq int64                    `json:"last_seq"`
}
