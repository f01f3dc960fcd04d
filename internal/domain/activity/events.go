package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProjectCreated is the payload of a project_created entry.
type ProjectCreated struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	Theme           string `json:"theme"`
	Initiator       string `json:"initiator"`
	TotalStreakDays uint16 `json:"total_streak_days"`
	MaxMembers      uint8  `json:"max_members"`
}

// ProjectJoined is the payload of a project_joined entry.
type ProjectJoined struct {
	ProjectID uint64 `json:"project_id"`
	Member    string `json:"member"`
	Position  int    `json:"position"`
}

// CheckInSuccess is the payload of a checkin_success entry.
type CheckInSuccess struct {
	ProjectID uint64 `json:"project_id"`
	Member    string `json:"member"`
	Streak    uint32 `json:"streak"`
	Day       int64  `json:"day"`
	ProofHash string `json:"proof_hash"`
}

// ProjectFinished is the payload of a project_finished entry.
type ProjectFinished struct {
	ProjectID  uint64 `json:"project_id"`
	FinishedBy string `json:"finished_by"`
}

// NewEntry builds an entry with a fresh ID and payload encoded into Details.
// Seq and Tick are assigned by the repository that persists it; for
// project_created the repository also assigns the project id.
func NewEntry(typ ActivityType, projectID uint64, member, summary string, payload any, at time.Time) (*ActivityEntry, error) {
	details, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s details: %w", typ, err)
	}
	return &ActivityEntry{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		Member:       member,
		ActivityType: typ,
		Summary:      summary,
		Details:      string(details),
		CreatedAt:    at,
	}, nil
}

// AssignProject sets the project id of an entry whose project was just
// allocated. A project_created payload gets the id written into Details too.
func (e *ActivityEntry) AssignProject(id uint64) error {
	e.ProjectID = id
	if e.ActivityType != TypeProjectCreated {
		return nil
	}

	var payload ProjectCreated
	if e.Details != "" {
		if err := json.Unmarshal([]byte(e.Details), &payload); err != nil {
			return fmt.Errorf("decoding %s details: %w", e.ActivityType, err)
		}
	}
	payload.ID = id
	details, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s details: %w", e.ActivityType, err)
	}
	e.Details = string(details)
	return nil
}

// Decode unmarshals Details into v.
func (e ActivityEntry) Decode(v any) error {
	if err := json.Unmarshal([]byte(e.Details), v); err != nil {
		return fmt.Errorf("decoding %s details: %w", e.ActivityType, err)
	}
	return nil
}
