package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

const dateLayout = "2006-01-02"

type TaskQuery struct {
	PageParams
	Status     string `query:"status" doc:"todo, in_progress or completed"`
	Priority   string `query:"priority" doc:"high, medium or low"`
	AssignedTo string `query:"assignedTo" doc:"Assignee user ID"`
	Search     string `query:"search" doc:"Match title or description"`
}

type ListProjectTasksInput struct {
	ProjectID uuid.UUID `path:"projectId" doc:"Project ID"`
	TaskQuery
}

type ListTasksInput struct {
	TaskQuery
	ProjectID string `query:"projectId" doc:"Restrict to one project"`
}

type CreateTaskInput struct {
	ProjectID uuid.UUID `path:"projectId" doc:"Project ID"`
	Body      struct {
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		AssignedTo  *uuid.UUID `json:"assignedTo,omitempty"`
		Priority    string     `json:"priority,omitempty" doc:"Defaults to medium"`
		DueDate     string     `json:"dueDate,omitempty" doc:"YYYY-MM-DD"`
	}
}

type TaskIDInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
}

type UpdateTaskStatusInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
	Body   struct {
		Status string `json:"status" doc:"todo, in_progress or completed"`
	}
}

type UpdateTaskInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
	Body   struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
		Status      *string `json:"status,omitempty"`
		Priority    *string `json:"priority,omitempty"`
		AssignedTo  *string `json:"assignedTo,omitempty" doc:"User ID; empty string unassigns"`
		DueDate     *string `json:"dueDate,omitempty" doc:"YYYY-MM-DD; empty string clears"`
	}
}

func RegisterTaskRoutes(api huma.API, tasks TaskService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-project-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{projectId}/tasks",
		Summary:     "List the tasks of a project",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListProjectTasksInput) (*Response[domain.ListResult[*domain.Task]], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		filter, err := input.filter()
		if err != nil {
			return nil, err
		}
		res, err := tasks.ListByProject(ctx, p, input.ProjectID, filter)
		if err != nil {
			return nil, apiError(ctx, err, "Project not found")
		}
		return ok(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/projects/{projectId}/tasks",
		Summary:       "Create a task in a project",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*Response[*domain.Task], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		due, err := parseDate(input.Body.DueDate)
		if err != nil {
			return nil, err
		}
		task, err := tasks.Create(ctx, p, input.ProjectID, service.CreateTaskInput{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			AssignedTo:  input.Body.AssignedTo,
			Priority:    domain.TaskPriority(input.Body.Priority),
			DueDate:     due,
		})
		if err != nil {
			return nil, apiError(ctx, err, "Project not found")
		}
		return created(task, ""), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks across the tenant",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*Response[domain.ListResult[*domain.Task]], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		filter, err := input.filter()
		if err != nil {
			return nil, err
		}
		if input.ProjectID != "" {
			id, err := uuid.Parse(input.ProjectID)
			if err != nil {
				return nil, huma.Error400BadRequest("projectId must be a UUID")
			}
			filter.ProjectID = &id
		}
		res, err := tasks.ListAll(ctx, p, filter)
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return ok(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskId}",
		Summary:     "Get a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*Response[*domain.Task], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		task, err := tasks.Get(ctx, p, input.TaskID)
		if err != nil {
			return nil, apiError(ctx, err, "Task not found")
		}
		return ok(task), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{taskId}/status",
		Summary:     "Move a task to another status",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskStatusInput) (*Response[*domain.Task], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		task, err := tasks.UpdateStatus(ctx, p, input.TaskID, domain.TaskStatus(input.Body.Status))
		if err != nil {
			return nil, apiError(ctx, err, "Task not found")
		}
		return ok(task), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{taskId}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*Response[*domain.Task], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		patch, err := input.patch()
		if err != nil {
			return nil, err
		}
		task, err := tasks.Update(ctx, p, input.TaskID, patch)
		if err != nil {
			return nil, apiError(ctx, err, "Task not found")
		}
		return ok(task), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{taskId}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*MessageResponse, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := tasks.Delete(ctx, p, input.TaskID); err != nil {
			return nil, apiError(ctx, err, "Task not found")
		}
		return message("Task deleted"), nil
	})
}

func (q TaskQuery) filter() (domain.TaskFilter, error) {
	f := domain.TaskFilter{
		Status:   domain.TaskStatus(q.Status),
		Priority: domain.TaskPriority(q.Priority),
		Search:   q.Search,
		Page:     q.page(),
	}
	if q.AssignedTo != "" {
		id, err := uuid.Parse(q.AssignedTo)
		if err != nil {
			return domain.TaskFilter{}, huma.Error400BadRequest("assignedTo must be a UUID")
		}
		f.AssignedTo = &id
	}
	return f, nil
}

func (in *UpdateTaskInput) patch() (domain.TaskPatch, error) {
	b := in.Body
	patch := domain.TaskPatch{Title: b.Title, Description: b.Description}
	if b.Status != nil {
		s := domain.TaskStatus(*b.Status)
		patch.Status = &s
	}
	if b.Priority != nil {
		pr := domain.TaskPriority(*b.Priority)
		patch.Priority = &pr
	}
	if b.AssignedTo != nil {
		if *b.AssignedTo == "" {
			patch.Unassign = true
		} else {
			id, err := uuid.Parse(*b.AssignedTo)
			if err != nil {
				return domain.TaskPatch{}, huma.Error400BadRequest("assignedTo must be a UUID")
			}
			patch.AssignedTo = &id
		}
	}
	if b.DueDate != nil {
		if *b.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			due, err := parseDate(*b.DueDate)
			if err != nil {
				return domain.TaskPatch{}, err
			}
			patch.DueDate = due
		}
	}
	return patch, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, huma.Error400BadRequest("dueDate must be a date (YYYY-MM-DD)")
}
