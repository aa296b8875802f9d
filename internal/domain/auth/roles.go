package auth

import "strings"

const (
	RoleHQAdmin       = "hq_admin"
	RoleHQStaff       = "hq_staff"
	RoleBranchManager = "branch_manager"
)

var validRoles = map[string]bool{
	RoleHQAdmin:       true,
	RoleHQStaff:       true,
	RoleBranchManager: true,
}

func ValidRole(role string) bool {
	return validRoles[role]
}

// CanManageReviews reports whether a user may author and administer manager
// reviews. HQ roles qualify outright; anyone else qualifies only through the
// REVIEW_ADMIN_EMAILS allow-list.
func CanManageReviews(role, email string, allowedEmails []string) bool {
	if role == RoleHQAdmin || role == RoleHQStaff {
		return true
	}
	for _, allowed := range allowedEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}
