package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

type ListProjectsInput struct {
	PageParams
	Status string `query:"status" doc:"active, archived or completed"`
	Search string `query:"search" doc:"Match name or description"`
}

type CreateProjectInput struct {
	Body struct {
		Name        string     `json:"name" doc:"Project name"`
		Description string     `json:"description,omitempty"`
		Status      string     `json:"status,omitempty" doc:"Defaults to active"`
		TenantID    *uuid.UUID `json:"tenantId,omitempty" doc:"Target tenant; super admin only"`
	}
}

type ProjectIDInput struct {
	ProjectID uuid.UUID `path:"projectId" doc:"Project ID"`
}

type UpdateProjectInput struct {
	ProjectID uuid.UUID `path:"projectId" doc:"Project ID"`
	Body      struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Status      *string `json:"status,omitempty"`
	}
}

func RegisterProjectRoutes(api huma.API, projects ProjectService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListProjectsInput) (*Response[domain.ListResult[*domain.Project]], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		res, err := projects.List(ctx, p, domain.ProjectFilter{
			Status: domain.ProjectStatus(input.Status),
			Search: input.Search,
			Page:   input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return ok(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create a project",
		Tags:          []string{"Projects"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateProjectInput) (*Response[*domain.Project], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		project, err := projects.Create(ctx, p, service.CreateProjectInput{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Status:      domain.ProjectStatus(input.Body.Status),
			TenantID:    input.Body.TenantID,
		})
		if err != nil {
			return nil, apiError(ctx, err, "Tenant not found")
		}
		return created(project, ""), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{projectId}",
		Summary:     "Get a project with its tasks",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ProjectIDInput) (*Response[*service.ProjectDetails], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		project, err := projects.Get(ctx, p, input.ProjectID)
		if err != nil {
			return nil, apiError(ctx, err, "Project not found")
		}
		return ok(project), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/projects/{projectId}",
		Summary:     "Update a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *UpdateProjectInput) (*Response[*domain.Project], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		patch := domain.ProjectPatch{Name: input.Body.Name, Description: input.Body.Description}
		if input.Body.Status != nil {
			s := domain.ProjectStatus(*input.Body.Status)
			patch.Status = &s
		}
		project, err := projects.Update(ctx, p, input.ProjectID, patch)
		if err != nil {
			return nil, apiError(ctx, err, "Project not found")
		}
		return ok(project), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectId}",
		Summary:     "Delete a project and its tasks",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ProjectIDInput) (*MessageResponse, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := projects.Delete(ctx, p, input.ProjectID); err != nil {
			return nil, apiError(ctx, err, "Project not found")
		}
		return message("Project and all associated tasks deleted successfully"), nil
	})
}
