package memstore

import (
	"time"

	"github.com/hashicorp/go-memdb"
)

const (
	tableProjects    = "projects"
	tableMemberships = "memberships"
	tableCheckIns    = "checkins"
	tableActivity    = "activity"
	tableCounters    = "counters"

	indexID         = "id"
	indexProject    = "project"
	indexMember     = "member"
	indexPosition   = "position"
	indexMembership = "membership"
)

type projectRecord struct {
	ID              uint64
	Name            string
	Theme           string
	Initiator       string
	TotalStreakDays uint16
	MaxMembers      uint8
	Finished        bool
	CreatedAt       time.Time
	FinishedAt      *time.Time
	Version         int64
}

type membershipRecord struct {
	ProjectID      uint64
	Member         string
	Position       int
	JoinedAt       time.Time
	LastCheckInDay *int64
	Streak         uint32
	CheckIns       uint32
	LastProofHash  string
}

type checkInRecord struct {
	ProjectID  uint64
	Member     string
	ProofHash  string
	Timestamp  int64
	Day        int64
	Signature  []byte
	Streak     uint32
	RecordedAt time.Time
}

type counterRecord struct {
	Name  string
	Value uint64
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableProjects: {
				Name: tableProjects,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.UintFieldIndex{Field: "ID"},
					},
				},
			},
			tableMemberships: {
				Name: tableMemberships,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:   indexID,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.UintFieldIndex{Field: "ProjectID"},
								&memdb.StringFieldIndex{Field: "Member"},
							},
						},
					},
					indexPosition: {
						Name:   indexPosition,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.UintFieldIndex{Field: "ProjectID"},
								&memdb.IntFieldIndex{Field: "Position"},
							},
						},
					},
					indexProject: {
						Name:    indexProject,
						Indexer: &memdb.UintFieldIndex{Field: "ProjectID"},
					},
					indexMember: {
						Name:    indexMember,
						Indexer: &memdb.StringFieldIndex{Field: "Member"},
					},
				},
			},
			tableCheckIns: {
				Name: tableCheckIns,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:   indexID,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.UintFieldIndex{Field: "ProjectID"},
								&memdb.StringFieldIndex{Field: "Member"},
								&memdb.IntFieldIndex{Field: "Day"},
							},
						},
					},
					indexMembership: {
						Name: indexMembership,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.UintFieldIndex{Field: "ProjectID"},
								&memdb.StringFieldIndex{Field: "Member"},
							},
						},
					},
				},
			},
			tableActivity: {
				Name: tableActivity,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "Seq"},
					},
					indexProject: {
						Name:    indexProject,
						Indexer: &memdb.UintFieldIndex{Field: "ProjectID"},
					},
				},
			},
			tableCounters: {
				Name: tableCounters,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
				},
			},
		},
	}
}
