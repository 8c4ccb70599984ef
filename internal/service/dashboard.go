package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// DashboardService computes the home page counters.
type DashboardService struct{ base }

// DashboardStats has two shapes: system totals for the super admin and
// tenant task progress for everyone else.
type DashboardStats struct {
	TotalTenants   *int `json:"totalTenants,omitempty"`
	TotalUsers     *int `json:"totalUsers,omitempty"`
	TotalProjects  int  `json:"totalProjects"`
	TotalTasks     int  `json:"totalTasks"`
	CompletedTasks *int `json:"completedTasks,omitempty"`
	PendingTasks   *int `json:"pendingTasks,omitempty"`
}

func (s *DashboardService) Stats(ctx context.Context, p tenancy.Principal) (*DashboardStats, error) {
	if err := s.Policy.Authorize(p, policy.Dashboard, policy.Read); err != nil {
		return nil, fmt.Errorf("dashboardService.Stats: %w", err)
	}

	if p.IsSuperAdmin() {
		stats, err := s.systemStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("dashboardService.Stats: %w", err)
		}
		return stats, nil
	}

	tid, err := tenancy.RequireTenant(p)
	if err != nil {
		return nil, fmt.Errorf("dashboardService.Stats: %w", err)
	}

	projects, err := s.Store.Projects().CountByTenant(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("dashboardService.Stats: %w", err)
	}

	var assignee *uuid.UUID
	if p.Role == domain.RoleUser {
		assignee = &p.UserID
	}
	counts, err := s.Store.Tasks().Counts(ctx, &tid, assignee)
	if err != nil {
		return nil, fmt.Errorf("dashboardService.Stats: %w", err)
	}

	completed := counts.Completed
	pending := counts.Total - counts.Completed
	return &DashboardStats{
		TotalProjects:  projects,
		TotalTasks:     counts.Total,
		CompletedTasks: &completed,
		PendingTasks:   &pending,
	}, nil
}

func (s *DashboardService) systemStats(ctx context.Context) (*DashboardStats, error) {
	tenants, err := s.Store.Tenants().Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.Store.Users().Count(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.Store.Projects().Count(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.Store.Tasks().Counts(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalTenants:  &tenants,
		TotalUsers:    &users,
		TotalProjects: projects,
		TotalTasks:    counts.Total,
	}, nil
}
