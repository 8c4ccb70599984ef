package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// ProjectService manages projects.
type ProjectService struct{ base }

type CreateProjectInput struct {
	Name        string
	Description string
	Status      domain.ProjectStatus
	// TenantID selects the tenant when the super admin creates a project.
	// Everyone else always creates in their own tenant.
	TenantID *uuid.UUID
}

// ProjectDetails is a project with the tasks visible to the caller.
type ProjectDetails struct {
	*domain.Project
	Tasks []*domain.Task `json:"tasks"`
}

func (s *ProjectService) List(ctx context.Context, p tenancy.Principal, filter domain.ProjectFilter) (domain.ListResult[*domain.Project], error) {
	if err := s.Policy.Authorize(p, policy.Project, policy.Read); err != nil {
		return domain.ListResult[*domain.Project]{}, fmt.Errorf("projectService.List: %w", err)
	}

	filter.Page = filter.Normalize(domain.MaxPageLimit)
	projects, total, err := s.Store.Projects().List(ctx, tenancy.ListScope(p), filter)
	if err != nil {
		return domain.ListResult[*domain.Project]{}, fmt.Errorf("projectService.List: %w", err)
	}
	return domain.NewListResult(projects, total, filter.Page), nil
}

func (s *ProjectService) lookup(ctx context.Context, p tenancy.Principal, projectID uuid.UUID) (*domain.Project, error) {
	return tenancy.Lookup(ctx, p, projectID, s.Store.Projects().FindByID, s.Store.Projects().GetByID)
}

// Get returns the project and its tasks. Role user only sees their own tasks.
func (s *ProjectService) Get(ctx context.Context, p tenancy.Principal, projectID uuid.UUID) (*ProjectDetails, error) {
	project, err := s.lookup(ctx, p, projectID)
	if err != nil {
		return nil, fmt.Errorf("projectService.Get: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Project, policy.Read); err != nil {
		return nil, fmt.Errorf("projectService.Get: %w", err)
	}

	filter := domain.TaskFilter{
		ProjectID: &project.ID,
		Page:      domain.Page{Page: 1, Limit: domain.MaxTaskPageLimit},
	}
	if p.Role == domain.RoleUser {
		filter.AssignedTo = &p.UserID
	}
	tasks, _, err := s.Store.Tasks().List(ctx, &project.TenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("projectService.Get: tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return &ProjectDetails{Project: project, Tasks: tasks}, nil
}

// Create adds a project within the plan's project limit.
func (s *ProjectService) Create(ctx context.Context, p tenancy.Principal, in CreateProjectInput) (*domain.Project, error) {
	if err := s.Policy.Authorize(p, policy.Project, policy.Create); err != nil {
		return nil, fmt.Errorf("projectService.Create: %w", err)
	}

	var tid uuid.UUID
	switch {
	case !p.IsSuperAdmin():
		own, err := tenancy.RequireTenant(p)
		if err != nil {
			return nil, fmt.Errorf("projectService.Create: %w", err)
		}
		tid = own
	case in.TenantID != nil:
		tid = *in.TenantID
	default:
		return nil, domain.NewError(domain.ErrValidation, "tenantId is required")
	}

	project, err := domain.NewProject(tid, in.Name, in.Description, in.Status, p.UserID)
	if err != nil {
		return nil, err
	}

	var created *domain.Project
	err = s.mutate(ctx, mutation{
		action:     domain.AuditCreateProject,
		entityType: domain.EntityProject,
		tenantID:   &tid,
		actor:      &p.UserID,
		entityID:   project.ID,
	}, func(r domain.Repositories) error {
		tenant, err := r.Tenants().LockByID(ctx, tid)
		if err != nil {
			return err
		}
		count, err := r.Projects().CountByTenant(ctx, tid)
		if err != nil {
			return err
		}
		if count >= tenant.MaxProjects {
			return s.limitExceeded("project", tenant.MaxProjects)
		}
		if err := r.Projects().Create(ctx, project); err != nil {
			return err
		}
		created, err = r.Projects().GetByID(ctx, tid, project.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("projectService.Create: %w", err)
	}
	return created, nil
}

func (s *ProjectService) Update(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	project, err := s.lookup(ctx, p, projectID)
	if err != nil {
		return nil, fmt.Errorf("projectService.Update: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Project, policy.Update); err != nil {
		return nil, fmt.Errorf("projectService.Update: %w", err)
	}

	var updated *domain.Project
	err = s.mutate(ctx, mutation{
		action:     domain.AuditUpdateProject,
		entityType: domain.EntityProject,
		tenantID:   &project.TenantID,
		actor:      &p.UserID,
		entityID:   project.ID,
	}, func(r domain.Repositories) error {
		var err error
		updated, err = r.Projects().Update(ctx, project.TenantID, project.ID, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("projectService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes the project; its tasks go with it.
func (s *ProjectService) Delete(ctx context.Context, p tenancy.Principal, projectID uuid.UUID) error {
	project, err := s.lookup(ctx, p, projectID)
	if err != nil {
		return fmt.Errorf("projectService.Delete: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Project, policy.Delete); err != nil {
		return fmt.Errorf("projectService.Delete: %w", err)
	}

	err = s.mutate(ctx, mutation{
		action:     domain.AuditDeleteProject,
		entityType: domain.EntityProject,
		tenantID:   &project.TenantID,
		actor:      &p.UserID,
		entityID:   project.ID,
	}, func(r domain.Repositories) error {
		return r.Projects().Delete(ctx, project.TenantID, project.ID)
	})
	if err != nil {
		return fmt.Errorf("projectService.Delete: %w", err)
	}
	return nil
}
