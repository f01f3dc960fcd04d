package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated  ActivityType = "project_created"
	TypeProjectJoined   ActivityType = "project_joined"
	TypeCheckInSuccess  ActivityType = "checkin_success"
	TypeProjectFinished ActivityType = "project_finished"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           string       `json:"id"`
	Seq          int64        `json:"seq"`
	ProjectID    uint64       `json:"project_id"`
	Member       string       `json:"member,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
	Tick         int64        `json:"tick"`
}
