package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

type Project struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenantId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedByID *uuid.UUID    `json:"createdById"` // nil once the creator is deleted
	CreatedBy   *UserRef      `json:"createdBy,omitempty"`
	TaskCount   int           `json:"taskCount"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewProject creates a Project with validated required fields and defaults.
func NewProject(tenantID uuid.UUID, name, description string, status ProjectStatus, createdBy uuid.UUID) (*Project, error) {
	if tenantID == uuid.Nil {
		return nil, NewError(ErrValidation, "Tenant is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrValidation, "Project name is required")
	}
	if status == "" {
		status = ProjectStatusActive
	}
	if !status.Valid() {
		return nil, NewError(ErrValidation, "Invalid project status")
	}
	now := time.Now()
	return &Project{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		Status:      status,
		CreatedByID: &createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ProjectPatch carries the fields of a partial project update. Nil means unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
}

func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil
}

func (p ProjectPatch) Validate() error {
	if p.Empty() {
		return NewError(ErrValidation, "No valid fields provided")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewError(ErrValidation, "Project name cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewError(ErrValidation, "Invalid project status")
	}
	return nil
}

type ProjectFilter struct {
	Status ProjectStatus
	Search string
	Page
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)
	// FindByID looks a project up without a tenant filter. Used only to
	// resolve the owning tenant for super admin requests.
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, patch ProjectPatch) (*Project, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// List returns one page and the total match count. A nil tenantID lists
	// across all tenants.
	List(ctx context.Context, tenantID *uuid.UUID, filter ProjectFilter) ([]*Project, int, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
	Count(ctx context.Context) (int, error)
}
