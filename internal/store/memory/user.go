package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type userRepo struct{ repos }

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	return r.do(func(st *state) error {
		if u.TenantID == nil && u.Role != domain.RoleSuperAdmin {
			return fmt.Errorf("userRepo.Create: users_tenant_required: %w", domain.ErrValidation)
		}
		if u.TenantID != nil {
			if _, ok := st.tenants[*u.TenantID]; !ok {
				return fmt.Errorf("userRepo.Create: tenant: %w", ErrForeignKey)
			}
		}
		for _, other := range st.users {
			if sameTenant(other.TenantID, u.TenantID) && other.Email == u.Email {
				if u.TenantID == nil {
					return fmt.Errorf("userRepo.Create: %w", conflict("users_system_email_key"))
				}
				return fmt.Errorf("userRepo.Create: %w", conflict("users_tenant_email_key"))
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) get(caller string, match func(domain.User) bool) (*domain.User, error) {
	var out *domain.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				out = &u
				return nil
			}
		}
		return fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	})
	return out, err
}

func (r userRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	return r.get("userRepo.GetByID", func(u domain.User) bool {
		return u.ID == id && u.TenantID != nil && *u.TenantID == tenantID
	})
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return r.get("userRepo.FindByID", func(u domain.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	return r.get("userRepo.GetByEmail", func(u domain.User) bool {
		return u.Email == email && u.TenantID != nil && *u.TenantID == tenantID
	})
}

func (r userRepo) GetSuperAdminByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.get("userRepo.GetSuperAdminByEmail", func(u domain.User) bool {
		return u.Email == email && u.TenantID == nil && u.Role == domain.RoleSuperAdmin
	})
}

func (r userRepo) Update(_ context.Context, u *domain.User) error {
	return r.do(func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok || !sameTenant(cur.TenantID, u.TenantID) {
			return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
		}
		cur.FullName = u.FullName
		cur.Role = u.Role
		cur.IsActive = u.IsActive
		cur.UpdatedAt = time.Now()
		st.users[u.ID] = cur
		return nil
	})
}

// Delete removes the user and nulls every reference to it.
func (r userRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	return r.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok || u.TenantID == nil || *u.TenantID != tenantID {
			return fmt.Errorf("userRepo.Delete: %w", domain.ErrNotFound)
		}
		delete(st.users, id)

		for k, t := range st.tasks {
			if t.AssignedTo != nil && *t.AssignedTo == id {
				t.AssignedTo = nil
				st.tasks[k] = t
			}
		}
		for k, p := range st.projects {
			if p.CreatedByID != nil && *p.CreatedByID == id {
				p.CreatedByID = nil
				st.projects[k] = p
			}
		}
		for i := range st.audit {
			if st.audit[i].UserID != nil && *st.audit[i].UserID == id {
				st.audit[i].UserID = nil
			}
		}
		return nil
	})
}

func (r userRepo) List(_ context.Context, tenantID uuid.UUID, filter domain.UserFilter) ([]*domain.User, int, error) {
	var (
		out   []*domain.User
		total int
	)
	err := r.do(func(st *state) error {
		var all []*domain.User
		for _, u := range st.users {
			if u.TenantID == nil || *u.TenantID != tenantID {
				continue
			}
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			if !matches(filter.Search, u.FullName, u.Email) {
				continue
			}
			all = append(all, ptr(u))
		}
		newestFirst(all, func(u *domain.User) time.Time { return u.CreatedAt })
		total = len(all)
		out = paginate(all, filter.Page)
		return nil
	})
	return out, total, err
}

func (r userRepo) CountByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.TenantID != nil && *u.TenantID == tenantID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r userRepo) Count(context.Context) (int, error) {
	var n int
	err := r.do(func(st *state) error {
		n = len(st.users)
		return nil
	})
	return n, err
}
