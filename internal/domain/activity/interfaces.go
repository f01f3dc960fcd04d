package activity

import "context"

// Repository provides read access to the activity log. Entries are written by the
// mutating repositories inside the same transaction as the change they describe.
type Repository interface {
	List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error)
}
