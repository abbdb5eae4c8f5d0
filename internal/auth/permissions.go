package auth

import "slices"

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermCourseRead     Permission = "course:read"
	PermCourseEnroll   Permission = "course:enroll"
	PermCourseManage   Permission = "course:manage"
	PermGradeReadOwn   Permission = "grade:read:own"
	PermGradeReadAll   Permission = "grade:read:all"
	PermGradeWrite     Permission = "grade:write"
	PermProgramManage  Permission = "program:manage"
	PermIdentityManage Permission = "identity:manage"
	PermAuditRead      Permission = "audit:read"
	PermSystemAdmin    Permission = "system:admin"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleStudent: {
		PermCourseRead,
		PermCourseEnroll,
		PermGradeReadOwn,
	},
	RoleTeacher: {
		PermCourseRead,
		PermCourseManage,
		PermGradeReadAll,
		PermGradeWrite,
	},
	RoleCoordinator: {
		PermCourseRead,
		PermCourseManage,
		PermGradeReadAll,
		PermProgramManage,
	},
	RoleAdmin: {
		PermCourseRead,
		PermIdentityManage,
		PermAuditRead,
		PermSystemAdmin,
	},
}

// RoleAuthority is the authority string granted by holding a role.
func RoleAuthority(r Role) string {
	return "ROLE_" + string(r)
}

// HasPermission returns true if the given role grants perm.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns a copy of the permissions granted by role.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}

// Authorities derives the authority set for a list of roles: one
// ROLE_<NAME> entry per role, in order, followed by the union of their
// permissions in first-seen order.
func Authorities(roles []Role) []string {
	out := make([]string, 0, len(roles)*4) //nolint:mnd // typical permissions per role
	seen := make(map[string]bool)

	add := func(a string) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	for _, r := range roles {
		add(RoleAuthority(r))
	}
	for _, r := range roles {
		for _, p := range rolePermissions[r] {
			add(string(p))
		}
	}
	return out
}
