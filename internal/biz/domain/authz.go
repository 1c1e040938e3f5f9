package domain

// Role is the platform-reported membership role of a user in a chat.
type Role int

const (
	RoleMember Role = iota
	RoleAdmin
	RoleOwner
	RoleAnonymousAdmin
)

// String returns the role name for logs.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	case RoleAnonymousAdmin:
		return "anonymous-admin"
	default:
		return "member"
	}
}

// Privileged reports whether the role alone grants privileged commands.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleOwner || r == RoleAnonymousAdmin
}
