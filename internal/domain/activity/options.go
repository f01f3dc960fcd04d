package activity

// ListActivityOptions provides filtering options for listing activity.
// Entries are returned in ascending Seq order.
type ListActivityOptions struct {
	ProjectID    *uint64
	Member       *string
	ActivityType *ActivityType
	AfterSeq     int64
	Limit        int
}
