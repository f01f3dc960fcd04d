package sqlite

import "strings"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isMemberKeyViolation matches the (project_id, member) primary key of memberships.
func isMemberKeyViolation(err error) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), "memberships.project_id, memberships.member")
}
