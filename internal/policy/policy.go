// Package policy is the single (role, resource, action) authorization table.
package policy

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/tenancy"
)

type Resource string

const (
	Task      Resource = "task"
	Project   Resource = "project"
	User      Resource = "user"
	Tenant    Resource = "tenant"
	Dashboard Resource = "dashboard"
	Audit     Resource = "audit"
)

type Action string

const (
	Read            Action = "read"
	List            Action = "list"
	Create          Action = "create"
	Update          Action = "update"
	Delete          Action = "delete"
	UpdateStatus    Action = "update_status"
	Assign          Action = "assign"
	UpdateSelf      Action = "update_self"
	UpdateName      Action = "update_name"
	GrantSuperAdmin Action = "grant_super_admin"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

type rule struct {
	role     domain.Role
	resource Resource
	actions  []Action
}

// Rows of the table. Ownership limits for role user (own tasks only) are
// applied by the services on top of these grants.
var rules = []rule{ //nolint:gochecknoglobals // static policy table
	{domain.RoleUser, Task, []Action{Read, UpdateStatus}},
	{domain.RoleUser, Project, []Action{Read}},
	{domain.RoleUser, User, []Action{List, Read, UpdateSelf}},
	{domain.RoleUser, Dashboard, []Action{Read}},
	{domain.RoleUser, Audit, []Action{Read}},

	{domain.RoleTenantAdmin, Task, []Action{Read, UpdateStatus, Create, Update, Delete, Assign}},
	{domain.RoleTenantAdmin, Project, []Action{Read, Create, Update, Delete}},
	{domain.RoleTenantAdmin, User, []Action{List, Read, UpdateSelf, Create, Update, Delete}},
	{domain.RoleTenantAdmin, Tenant, []Action{Read, UpdateName}},
	{domain.RoleTenantAdmin, Dashboard, []Action{Read}},
	{domain.RoleTenantAdmin, Audit, []Action{Read}},
}

// Policy wraps a casbin enforcer loaded with the table above.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds the enforcer. It fails only if the embedded model is invalid.
func New() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("policy.New: model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy.New: enforcer: %w", err)
	}

	var rows [][]string
	for _, r := range rules {
		for _, a := range r.actions {
			rows = append(rows, []string{string(r.role), string(r.resource), string(a)})
		}
	}
	rows = append(rows, []string{string(domain.RoleSuperAdmin), "*", "*"})

	if _, err := e.AddPolicies(rows); err != nil {
		return nil, fmt.Errorf("policy.New: add policies: %w", err)
	}

	return &Policy{enforcer: e}, nil
}

// MustNew is New for callers that treat a broken table as a programming error.
func MustNew() *Policy {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

// Allowed reports whether role may perform action on resource.
func (p *Policy) Allowed(role domain.Role, resource Resource, action Action) bool {
	ok, err := p.enforcer.Enforce(string(role), string(resource), string(action))
	return err == nil && ok
}

// Authorize returns domain.ErrForbidden unless the principal's role is granted
// action on resource.
func (p *Policy) Authorize(pr tenancy.Principal, resource Resource, action Action) error {
	if p.Allowed(pr.Role, resource, action) {
		return nil
	}
	return fmt.Errorf("policy.Authorize: %s %s %s: %w", pr.Role, action, resource,
		domain.NewError(domain.ErrForbidden, "Insufficient permissions"))
}

// UserUpdateActions lists every grant a user update needs. Changing only your
// own name is self-service; anything else is an admin update, and granting
// super_admin needs its own grant on top.
func UserUpdateActions(pr tenancy.Principal, targetID uuid.UUID, patch domain.UserPatch) []Action {
	if pr.IsSelf(targetID) && patch.SelfService() {
		return []Action{UpdateSelf}
	}
	actions := []Action{Update}
	if patch.Role != nil && *patch.Role == domain.RoleSuperAdmin {
		actions = append(actions, GrantSuperAdmin)
	}
	return actions
}

// TenantUpdateAction picks update_name for a rename and update otherwise.
func TenantUpdateAction(patch domain.TenantPatch) Action {
	if patch.NameOnly() {
		return UpdateName
	}
	return Update
}

// CanDeleteUser forbids deleting your own account.
func CanDeleteUser(pr tenancy.Principal, targetID uuid.UUID) error {
	if pr.IsSelf(targetID) {
		return domain.NewError(domain.ErrForbidden, "You cannot delete your own account")
	}
	return nil
}

// CanDeactivate forbids switching off your own account.
func CanDeactivate(pr tenancy.Principal, targetID uuid.UUID, patch domain.UserPatch) error {
	if pr.IsSelf(targetID) && patch.IsActive != nil && !*patch.IsActive {
		return domain.NewError(domain.ErrForbidden, "You cannot deactivate your own account")
	}
	return nil
}
