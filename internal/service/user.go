package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// UserService manages the users of a tenant.
type UserService struct{ base }

type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// List returns the users of tenantID, or of the caller's tenant when nil.
func (s *UserService) List(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, filter domain.UserFilter) (domain.ListResult[*domain.User], error) {
	tid, err := tenantOf(p, tenantID)
	if err != nil {
		return domain.ListResult[*domain.User]{}, fmt.Errorf("userService.List: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.User, policy.List); err != nil {
		return domain.ListResult[*domain.User]{}, fmt.Errorf("userService.List: %w", err)
	}

	filter.Page = filter.Normalize(domain.MaxPageLimit)
	users, total, err := s.Store.Users().List(ctx, tid, filter)
	if err != nil {
		return domain.ListResult[*domain.User]{}, fmt.Errorf("userService.List: %w", err)
	}
	return domain.NewListResult(users, total, filter.Page), nil
}

func (s *UserService) lookup(ctx context.Context, p tenancy.Principal, userID uuid.UUID) (*domain.User, error) {
	return tenancy.Lookup(ctx, p, userID, s.Store.Users().FindByID, s.Store.Users().GetByID)
}

func (s *UserService) Get(ctx context.Context, p tenancy.Principal, userID uuid.UUID) (*domain.User, error) {
	user, err := s.lookup(ctx, p, userID)
	if err != nil {
		return nil, fmt.Errorf("userService.Get: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.User, policy.Read); err != nil {
		return nil, fmt.Errorf("userService.Get: %w", err)
	}
	return user, nil
}

// Create adds a user to tenantID (or the caller's tenant) within the plan's
// user limit.
func (s *UserService) Create(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, in CreateUserInput) (*domain.User, error) {
	tid, err := tenantOf(p, tenantID)
	if err != nil {
		return nil, fmt.Errorf("userService.Create: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.User, policy.Create); err != nil {
		return nil, fmt.Errorf("userService.Create: %w", err)
	}

	if in.Password == "" {
		return nil, domain.NewError(domain.ErrValidation, "Email, password, and fullName are required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	user, err := domain.NewUser(tid, in.Email, in.FullName, in.Role)
	if err != nil {
		return nil, err
	}
	user.PasswordHash, err = auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("userService.Create: %w", err)
	}

	err = s.mutate(ctx, mutation{
		action:     domain.AuditCreateUser,
		entityType: domain.EntityUser,
		tenantID:   &tid,
		actor:      &p.UserID,
		entityID:   user.ID,
	}, func(r domain.Repositories) error {
		tenant, err := r.Tenants().LockByID(ctx, tid)
		if err != nil {
			return err
		}
		count, err := r.Users().CountByTenant(ctx, tid)
		if err != nil {
			return err
		}
		if count >= tenant.MaxUsers {
			return s.limitExceeded("user", tenant.MaxUsers)
		}
		return r.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("userService.Create: %w", conflictAs(err, "Email already exists in this tenant"))
	}
	return user, nil
}

// Update applies patch under the self-service rules. Switching a tenant
// admin on or off also reactivates or suspends their tenant.
func (s *UserService) Update(ctx context.Context, p tenancy.Principal, userID uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	if patch.Empty() {
		return nil, domain.NewError(domain.ErrValidation, "No valid fields provided")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	target, err := s.lookup(ctx, p, userID)
	if err != nil {
		return nil, fmt.Errorf("userService.Update: %w", err)
	}
	for _, action := range policy.UserUpdateActions(p, target.ID, patch) {
		if err := s.Policy.Authorize(p, policy.User, action); err != nil {
			return nil, fmt.Errorf("userService.Update: %w", err)
		}
	}
	if err := policy.CanDeactivate(p, target.ID, patch); err != nil {
		return nil, fmt.Errorf("userService.Update: %w", err)
	}

	wasAdmin := target.Role == domain.RoleTenantAdmin
	toggled := patch.IsActive != nil && *patch.IsActive != target.IsActive
	syncTenant := wasAdmin && toggled && target.TenantID != nil

	updated := *target
	patch.Apply(&updated)

	err = s.mutate(ctx, mutation{
		action:     domain.AuditUpdateUser,
		entityType: domain.EntityUser,
		tenantID:   target.TenantID,
		actor:      &p.UserID,
		entityID:   target.ID,
	}, func(r domain.Repositories) error {
		if err := r.Users().Update(ctx, &updated); err != nil {
			return err
		}
		if !syncTenant {
			return nil
		}
		status := domain.TenantStatusSuspended
		if updated.IsActive {
			status = domain.TenantStatusActive
		}
		return r.Tenants().SetStatus(ctx, *target.TenantID, status)
	})
	if err != nil {
		return nil, fmt.Errorf("userService.Update: %w", err)
	}

	if syncTenant {
		state := "suspended"
		if updated.IsActive {
			state = "reactivated"
		}
		s.notify(ctx, fmt.Sprintf("Tenant %s %s: admin %s was %s", *target.TenantID, state, target.Email, activeWord(updated.IsActive)))
	}
	return &updated, nil
}

func activeWord(active bool) string {
	if active {
		return "activated"
	}
	return "deactivated"
}

// Delete removes a user. Nobody can delete themselves.
func (s *UserService) Delete(ctx context.Context, p tenancy.Principal, userID uuid.UUID) error {
	target, err := s.lookup(ctx, p, userID)
	if err != nil {
		return fmt.Errorf("userService.Delete: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.User, policy.Delete); err != nil {
		return fmt.Errorf("userService.Delete: %w", err)
	}
	if err := policy.CanDeleteUser(p, target.ID); err != nil {
		return fmt.Errorf("userService.Delete: %w", err)
	}
	if target.TenantID == nil {
		return domain.NewError(domain.ErrForbidden, "System accounts cannot be deleted")
	}

	err = s.mutate(ctx, mutation{
		action:     domain.AuditDeleteUser,
		entityType: domain.EntityUser,
		tenantID:   target.TenantID,
		actor:      &p.UserID,
		entityID:   target.ID,
	}, func(r domain.Repositories) error {
		return r.Users().Delete(ctx, *target.TenantID, target.ID)
	})
	if err != nil {
		return fmt.Errorf("userService.Delete: %w", err)
	}
	return nil
}
