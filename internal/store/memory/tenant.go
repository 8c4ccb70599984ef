package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type tenantRepo struct{ repos }

func (r tenantRepo) Create(_ context.Context, t *domain.Tenant) error {
	return r.do(func(st *state) error {
		for _, other := range st.tenants {
			if other.Subdomain == t.Subdomain {
				return fmt.Errorf("tenantRepo.Create: %w", conflict("tenants_subdomain_key"))
			}
		}
		st.tenants[t.ID] = *t
		return nil
	})
}

func (r tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.do(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return fmt.Errorf("tenantRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r tenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.do(func(st *state) error {
		for _, t := range st.tenants {
			if t.Subdomain == subdomain {
				out = &t
				return nil
			}
		}
		return fmt.Errorf("tenantRepo.GetBySubdomain: %w", domain.ErrNotFound)
	})
	return out, err
}

// LockByID is GetByID; transactions already run one at a time.
func (r tenantRepo) LockByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.GetByID(ctx, id)
}

func (r tenantRepo) Update(_ context.Context, id uuid.UUID, patch domain.TenantPatch) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.do(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return fmt.Errorf("tenantRepo.Update: %w", domain.ErrNotFound)
		}
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.SubscriptionPlan != nil {
			t.SubscriptionPlan = *patch.SubscriptionPlan
		}
		if patch.MaxUsers != nil {
			t.MaxUsers = *patch.MaxUsers
		}
		if patch.MaxProjects != nil {
			t.MaxProjects = *patch.MaxProjects
		}
		t.UpdatedAt = time.Now()
		st.tenants[id] = t
		out = &t
		return nil
	})
	return out, err
}

func (r tenantRepo) SetStatus(_ context.Context, id uuid.UUID, status domain.TenantStatus) error {
	return r.do(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return fmt.Errorf("tenantRepo.SetStatus: %w", domain.ErrNotFound)
		}
		t.Status = status
		t.UpdatedAt = time.Now()
		st.tenants[id] = t
		return nil
	})
}

func (r tenantRepo) List(_ context.Context, filter domain.TenantFilter) ([]*domain.Tenant, int, error) {
	var (
		out   []*domain.Tenant
		total int
	)
	err := r.do(func(st *state) error {
		var all []*domain.Tenant
		for _, t := range st.tenants {
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.SubscriptionPlan != "" && t.SubscriptionPlan != filter.SubscriptionPlan {
				continue
			}
			all = append(all, ptr(t))
		}
		newestFirst(all, func(t *domain.Tenant) time.Time { return t.CreatedAt })
		total = len(all)
		out = paginate(all, filter.Page)
		return nil
	})
	return out, total, err
}

func (r tenantRepo) Stats(_ context.Context, id uuid.UUID) (*domain.TenantStats, error) {
	var out domain.TenantStats
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.TenantID != nil && *u.TenantID == id {
				out.TotalUsers++
			}
		}
		for _, p := range st.projects {
			if p.TenantID == id {
				out.TotalProjects++
			}
		}
		for _, t := range st.tasks {
			if t.TenantID == id {
				out.TotalTasks++
			}
		}
		return nil
	})
	return &out, err
}

func (r tenantRepo) Count(context.Context) (int, error) {
	var n int
	err := r.do(func(st *state) error {
		n = len(st.tenants)
		return nil
	})
	return n, err
}
