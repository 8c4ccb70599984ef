package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type projectRepo struct{ repos }

// hydrateProject fills the joined creator and task count columns.
func hydrateProject(st *state, p domain.Project) *domain.Project {
	p.CreatedBy = nil
	if p.CreatedByID != nil {
		if u, ok := st.users[*p.CreatedByID]; ok {
			p.CreatedBy = &domain.UserRef{ID: u.ID, FullName: u.FullName}
		}
	}
	p.TaskCount = 0
	for _, t := range st.tasks {
		if t.ProjectID == p.ID {
			p.TaskCount++
		}
	}
	return &p
}

func (r projectRepo) Create(_ context.Context, p *domain.Project) error {
	return r.do(func(st *state) error {
		if _, ok := st.tenants[p.TenantID]; !ok {
			return fmt.Errorf("projectRepo.Create: tenant: %w", ErrForeignKey)
		}
		if p.CreatedByID != nil {
			if _, ok := st.users[*p.CreatedByID]; !ok {
				return fmt.Errorf("projectRepo.Create: created_by: %w", ErrForeignKey)
			}
		}
		stored := *p
		stored.CreatedBy = nil
		stored.TaskCount = 0
		st.projects[p.ID] = stored
		return nil
	})
}

func (r projectRepo) get(caller string, id uuid.UUID, tenantID *uuid.UUID) (*domain.Project, error) {
	var out *domain.Project
	err := r.do(func(st *state) error {
		p, ok := st.projects[id]
		if !ok || (tenantID != nil && p.TenantID != *tenantID) {
			return fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
		}
		out = hydrateProject(st, p)
		return nil
	})
	return out, err
}

func (r projectRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Project, error) {
	return r.get("projectRepo.GetByID", id, &tenantID)
}

func (r projectRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	return r.get("projectRepo.FindByID", id, nil)
}

func (r projectRepo) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error) {
	err := r.do(func(st *state) error {
		p, ok := st.projects[id]
		if !ok || p.TenantID != tenantID {
			return fmt.Errorf("projectRepo.Update: %w", domain.ErrNotFound)
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		p.UpdatedAt = time.Now()
		st.projects[id] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// Delete removes the project and its tasks.
func (r projectRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	return r.do(func(st *state) error {
		p, ok := st.projects[id]
		if !ok || p.TenantID != tenantID {
			return fmt.Errorf("projectRepo.Delete: %w", domain.ErrNotFound)
		}
		delete(st.projects, id)
		for k, t := range st.tasks {
			if t.ProjectID == id {
				delete(st.tasks, k)
			}
		}
		return nil
	})
}

func (r projectRepo) List(_ context.Context, tenantID *uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, int, error) {
	var (
		out   []*domain.Project
		total int
	)
	err := r.do(func(st *state) error {
		var all []*domain.Project
		for _, p := range st.projects {
			if tenantID != nil && p.TenantID != *tenantID {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if !matches(filter.Search, p.Name, p.Description) {
				continue
			}
			all = append(all, hydrateProject(st, p))
		}
		newestFirst(all, func(p *domain.Project) time.Time { return p.CreatedAt })
		total = len(all)
		out = paginate(all, filter.Page)
		return nil
	})
	return out, total, err
}

func (r projectRepo) CountByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.do(func(st *state) error {
		for _, p := range st.projects {
			if p.TenantID == tenantID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r projectRepo) Count(context.Context) (int, error) {
	var n int
	err := r.do(func(st *state) error {
		n = len(st.projects)
		return nil
	})
	return n, err
}
