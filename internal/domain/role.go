package domain

type Role string

const (
	RoleUser        Role = "user"
	RoleTenantAdmin Role = "tenant_admin"
	RoleSuperAdmin  Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTenantAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r may manage users and projects.
func (r Role) IsAdmin() bool {
	return r == RoleTenantAdmin || r == RoleSuperAdmin
}
