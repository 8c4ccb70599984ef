// Package tenancy decides which tenant an operation is scoped to.
//
// Callers other than the super admin are confined to the tenant in their
// token. A resource that lives in another tenant is reported exactly like a
// missing one (domain.ErrNotFound) so its existence never leaks.
package tenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID // nil only for the super admin
	Role     domain.Role
}

func (p Principal) IsSuperAdmin() bool { return p.Role == domain.RoleSuperAdmin }

// IsSelf reports whether id is the caller's own user id.
func (p Principal) IsSelf(id uuid.UUID) bool { return p.UserID == id }

var errNoTenant = domain.NewError(domain.ErrForbidden, "This operation requires a tenant context")

// Scope returns the tenant an operation on a resource owned by
// resourceTenantID runs under.
func Scope(p Principal, resourceTenantID uuid.UUID) (uuid.UUID, error) {
	if p.IsSuperAdmin() {
		return resourceTenantID, nil
	}
	if p.TenantID == nil || *p.TenantID != resourceTenantID {
		return uuid.Nil, fmt.Errorf("tenancy.Scope: %w", domain.ErrNotFound)
	}
	return resourceTenantID, nil
}

// RequireTenant returns the caller's own tenant. The super admin has none.
func RequireTenant(p Principal) (uuid.UUID, error) {
	if p.TenantID == nil {
		return uuid.Nil, fmt.Errorf("tenancy.RequireTenant: %w", errNoTenant)
	}
	return *p.TenantID, nil
}

// ForTenantPath scopes /tenants/{tenantId} routes.
func ForTenantPath(p Principal, pathTenantID uuid.UUID) (uuid.UUID, error) {
	tid, err := Scope(p, pathTenantID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("tenancy.ForTenantPath: %w", err)
	}
	return tid, nil
}

// ListScope is the tenant filter for listings; nil means every tenant.
func ListScope(p Principal) *uuid.UUID {
	if p.IsSuperAdmin() {
		return nil
	}
	if p.TenantID == nil {
		// Unreachable for a verified token; scope to nothing rather than everything.
		nilID := uuid.Nil
		return &nilID
	}
	tid := *p.TenantID
	return &tid
}

// Lookup loads a tenant-owned resource by id. The super admin goes through
// find (any tenant); everyone else through get, which filters on their tenant.
func Lookup[T any](
	ctx context.Context,
	p Principal,
	id uuid.UUID,
	find func(context.Context, uuid.UUID) (T, error),
	get func(context.Context, uuid.UUID, uuid.UUID) (T, error),
) (T, error) {
	if p.IsSuperAdmin() {
		return find(ctx, id)
	}

	var zero T
	if p.TenantID == nil {
		return zero, fmt.Errorf("tenancy.Lookup: %w", domain.ErrNotFound)
	}

	v, err := get(ctx, *p.TenantID, id)
	if err != nil {
		return zero, err
	}
	return v, nil
}
