package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// bcrypt only accepts up to 72 bytes.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

func validatePassword(pw string) error {
	if len(pw) < minPasswordLen {
		return domain.NewError(domain.ErrValidation, "Password must be at least 8 characters")
	}
	if len(pw) > maxPasswordLen {
		return domain.NewError(domain.ErrValidation, "Password must be at most 72 bytes")
	}
	return nil
}

// TenantService manages tenants and their registration.
type TenantService struct{ base }

type RegisterTenantInput struct {
	TenantName    string
	Subdomain     string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
	Plan          domain.SubscriptionPlan
}

// Registration is the result of creating a tenant with its first admin.
type Registration struct {
	TenantID  uuid.UUID    `json:"tenantId"`
	Subdomain string       `json:"subdomain"`
	AdminUser *domain.User `json:"adminUser"`
}

// TenantDetails is a tenant with its usage counters.
type TenantDetails struct {
	*domain.Tenant
	Stats domain.TenantStats `json:"stats"`
}

// Register is the public sign-up flow. The tenant always starts on the free
// plan regardless of in.Plan.
func (s *TenantService) Register(ctx context.Context, in RegisterTenantInput) (*Registration, error) {
	in.Plan = domain.PlanFree
	reg, err := s.create(ctx, in, nil, domain.AuditRegisterTenant)
	if err != nil {
		return nil, fmt.Errorf("tenantService.Register: %w", err)
	}
	return reg, nil
}

// Create provisions a tenant on behalf of the super admin.
func (s *TenantService) Create(ctx context.Context, p tenancy.Principal, in RegisterTenantInput) (*Registration, error) {
	if err := s.Policy.Authorize(p, policy.Tenant, policy.Create); err != nil {
		return nil, fmt.Errorf("tenantService.Create: %w", err)
	}
	reg, err := s.create(ctx, in, &p.UserID, domain.AuditCreateTenant)
	if err != nil {
		return nil, fmt.Errorf("tenantService.Create: %w", err)
	}
	return reg, nil
}

func (s *TenantService) create(ctx context.Context, in RegisterTenantInput, actor *uuid.UUID, action domain.AuditAction) (*Registration, error) {
	if strings.TrimSpace(in.TenantName) == "" || strings.TrimSpace(in.Subdomain) == "" ||
		strings.TrimSpace(in.AdminEmail) == "" || in.AdminPassword == "" || strings.TrimSpace(in.AdminFullName) == "" {
		return nil, domain.NewError(domain.ErrValidation, "All fields are required")
	}
	if err := validatePassword(in.AdminPassword); err != nil {
		return nil, err
	}

	tenant, err := domain.NewTenant(in.TenantName, in.Subdomain, in.Plan)
	if err != nil {
		return nil, err
	}
	admin, err := domain.NewUser(tenant.ID, in.AdminEmail, in.AdminFullName, domain.RoleTenantAdmin)
	if err != nil {
		return nil, err
	}
	admin.PasswordHash, err = auth.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, err
	}

	if actor == nil {
		actor = &admin.ID
	}

	err = s.mutate(ctx, mutation{
		action:     action,
		entityType: domain.EntityTenant,
		tenantID:   &tenant.ID,
		actor:      actor,
		entityID:   tenant.ID,
	}, func(r domain.Repositories) error {
		if err := r.Tenants().Create(ctx, tenant); err != nil {
			return err
		}
		return r.Users().Create(ctx, admin)
	})
	if err != nil {
		return nil, conflictAs(err, "Subdomain or email already exists")
	}

	s.notify(ctx, fmt.Sprintf("New tenant *%s* (%s) registered on the %s plan", tenant.Name, tenant.Subdomain, tenant.SubscriptionPlan))

	return &Registration{TenantID: tenant.ID, Subdomain: tenant.Subdomain, AdminUser: admin}, nil
}

// List returns every tenant. Super admin only.
func (s *TenantService) List(ctx context.Context, p tenancy.Principal, filter domain.TenantFilter) (domain.ListResult[*domain.Tenant], error) {
	if err := s.Policy.Authorize(p, policy.Tenant, policy.List); err != nil {
		return domain.ListResult[*domain.Tenant]{}, fmt.Errorf("tenantService.List: %w", err)
	}

	filter.Page = filter.Normalize(domain.MaxPageLimit)
	tenants, total, err := s.Store.Tenants().List(ctx, filter)
	if err != nil {
		return domain.ListResult[*domain.Tenant]{}, fmt.Errorf("tenantService.List: %w", err)
	}
	return domain.NewListResult(tenants, total, filter.Page), nil
}

// Get returns a tenant with its usage counters.
func (s *TenantService) Get(ctx context.Context, p tenancy.Principal, tenantID uuid.UUID) (*TenantDetails, error) {
	tid, err := tenancy.ForTenantPath(p, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenantService.Get: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Tenant, policy.Read); err != nil {
		return nil, fmt.Errorf("tenantService.Get: %w", err)
	}

	tenant, err := s.Store.Tenants().GetByID(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("tenantService.Get: %w", err)
	}
	stats, err := s.Store.Tenants().Stats(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("tenantService.Get: %w", err)
	}
	return &TenantDetails{Tenant: tenant, Stats: *stats}, nil
}

// Update applies patch. Tenant admins may only rename their own tenant.
// Changing the plan without explicit limits resets both limits to the plan's.
func (s *TenantService) Update(ctx context.Context, p tenancy.Principal, tenantID uuid.UUID, patch domain.TenantPatch) (*domain.Tenant, error) {
	if patch.Empty() {
		return nil, domain.NewError(domain.ErrValidation, "No valid fields provided")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	tid, err := tenancy.ForTenantPath(p, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenantService.Update: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Tenant, policy.TenantUpdateAction(patch)); err != nil {
		return nil, fmt.Errorf("tenantService.Update: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.SubscriptionPlan != nil {
		maxUsers, maxProjects := patch.SubscriptionPlan.Limits()
		if patch.MaxUsers == nil {
			patch.MaxUsers = &maxUsers
		}
		if patch.MaxProjects == nil {
			patch.MaxProjects = &maxProjects
		}
	}

	var before, after *domain.Tenant
	err = s.mutate(ctx, mutation{
		action:     domain.AuditUpdateTenant,
		entityType: domain.EntityTenant,
		tenantID:   &tid,
		actor:      &p.UserID,
		entityID:   tid,
	}, func(r domain.Repositories) error {
		var err error
		if before, err = r.Tenants().LockByID(ctx, tid); err != nil {
			return err
		}
		after, err = r.Tenants().Update(ctx, tid, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tenantService.Update: %w", err)
	}

	if before.Status != after.Status {
		s.notify(ctx, fmt.Sprintf("Tenant *%s* status changed from %s to %s", after.Subdomain, before.Status, after.Status))
	}
	return after, nil
}
