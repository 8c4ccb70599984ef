package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// AuthService abstracts login and identity operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, email, password, subdomain string) (*auth.LoginResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*auth.Identity, error)
	Logout(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID) error
}

// TenantService is satisfied by *service.TenantService.
type TenantService interface {
	Register(ctx context.Context, in service.RegisterTenantInput) (*service.Registration, error)
	Create(ctx context.Context, p tenancy.Principal, in service.RegisterTenantInput) (*service.Registration, error)
	List(ctx context.Context, p tenancy.Principal, filter domain.TenantFilter) (domain.ListResult[*domain.Tenant], error)
	Get(ctx context.Context, p tenancy.Principal, tenantID uuid.UUID) (*service.TenantDetails, error)
	Update(ctx context.Context, p tenancy.Principal, tenantID uuid.UUID, patch domain.TenantPatch) (*domain.Tenant, error)
}

// UserService is satisfied by *service.UserService. A nil tenantID means
// the caller's own tenant.
type UserService interface {
	List(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, filter domain.UserFilter) (domain.ListResult[*domain.User], error)
	Get(ctx context.Context, p tenancy.Principal, userID uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, in service.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, p tenancy.Principal, userID uuid.UUID, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, p tenancy.Principal, userID uuid.UUID) error
}

// ProjectService is satisfied by *service.ProjectService.
type ProjectService interface {
	List(ctx context.Context, p tenancy.Principal, filter domain.ProjectFilter) (domain.ListResult[*domain.Project], error)
	Get(ctx context.Context, p tenancy.Principal, projectID uuid.UUID) (*service.ProjectDetails, error)
	Create(ctx context.Context, p tenancy.Principal, in service.CreateProjectInput) (*domain.Project, error)
	Update(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, p tenancy.Principal, projectID uuid.UUID) error
}

// TaskService is satisfied by *service.TaskService.
type TaskService interface {
	Create(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, in service.CreateTaskInput) (*domain.Task, error)
	ListByProject(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error)
	ListAll(ctx context.Context, p tenancy.Principal, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error)
	Get(ctx context.Context, p tenancy.Principal, taskID uuid.UUID) (*domain.Task, error)
	UpdateStatus(ctx context.Context, p tenancy.Principal, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
	Update(ctx context.Context, p tenancy.Principal, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, p tenancy.Principal, taskID uuid.UUID) error
}

type DashboardService interface {
	Stats(ctx context.Context, p tenancy.Principal) (*service.DashboardStats, error)
}

type AuditService interface {
	Recent(ctx context.Context, p tenancy.Principal) ([]*domain.AuditEntry, error)
}

// Pinger reports database reachability. domain.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}
