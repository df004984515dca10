package rbac

// Role represents an admin back-office role. The zero value means "no admin
// role" — an ordinary member or an anonymous visitor. Ordinary member
// sessions have no role concept at this layer.
type Role string

const (
	// RoleNone is the absence of an admin role.
	RoleNone Role = ""

	// RoleSuperAdmin can reach every admin area unconditionally.
	RoleSuperAdmin Role = "Super Admin"

	// RoleModerator handles day-to-day moderation work.
	RoleModerator Role = "Moderator"

	// RoleCustomerSupport handles member-facing support tasks.
	RoleCustomerSupport Role = "Customer Support"
)

// ParseRole maps the role string stored in the admin identity record to a
// typed Role. Unknown or empty strings parse to RoleNone so that malformed
// persisted data can never grant access.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSuperAdmin, RoleModerator, RoleCustomerSupport:
		return Role(s)
	}
	return RoleNone
}

// Valid reports whether r is one of the three declared admin roles.
func (r Role) Valid() bool {
	return ParseRole(string(r)) != RoleNone
}
