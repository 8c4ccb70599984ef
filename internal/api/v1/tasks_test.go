package v1_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

func TestCreateTask(t *testing.T) {
	t.Parallel()

	projectID, assignee := uuid.New(), uuid.New()

	t.Run("parses_body", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		tasks := &mockTaskService{
			createFunc: func(_ context.Context, _ tenancy.Principal, pid uuid.UUID, in service.CreateTaskInput) (*domain.Task, error) {
				assert.Equal(t, projectID, pid)
				assert.Equal(t, "Write launch plan", in.Title)
				assert.Equal(t, domain.TaskPriorityHigh, in.Priority)
				require.NotNil(t, in.AssignedTo)
				assert.Equal(t, assignee, *in.AssignedTo)
				require.NotNil(t, in.DueDate)
				assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *in.DueDate)
				return &domain.Task{ID: uuid.New(), ProjectID: pid, Title: in.Title, Status: domain.TaskStatusTodo, Priority: in.Priority}, nil
			},
		}
		v1.RegisterTaskRoutes(api, tasks)

		resp := api.PostCtx(ctx, "/projects/"+projectID.String()+"/tasks", map[string]any{
			"title":      "Write launch plan",
			"priority":   "high",
			"assignedTo": assignee.String(),
			"dueDate":    "2026-03-01",
		})

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		env := decode[domain.Task](t, resp)
		assert.Equal(t, domain.TaskStatusTodo, env.Data.Status)
	})

	t.Run("bad_due_date", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		v1.RegisterTaskRoutes(api, &mockTaskService{})

		resp := api.PostCtx(ctx, "/projects/"+projectID.String()+"/tasks", map[string]any{
			"title": "x", "dueDate": "next week",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, decode[any](t, resp).Message, "dueDate")
	})

	t.Run("foreign_assignee", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		v1.RegisterTaskRoutes(api, &mockTaskService{
			createFunc: func(_ context.Context, _ tenancy.Principal, _ uuid.UUID, _ service.CreateTaskInput) (*domain.Task, error) {
				return nil, domain.NewError(domain.ErrValidation, "Assigned user must belong to your company")
			},
		})

		resp := api.PostCtx(ctx, "/projects/"+projectID.String()+"/tasks", map[string]any{
			"title": "x", "assignedTo": uuid.NewString(),
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Assigned user must belong to your company", decode[any](t, resp).Message)
	})
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	projectID, assignee := uuid.New(), uuid.New()

	t.Run("tenant_wide_filters", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		v1.RegisterTaskRoutes(api, &mockTaskService{
			listAllFunc: func(_ context.Context, _ tenancy.Principal, f domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
				require.NotNil(t, f.ProjectID)
				assert.Equal(t, projectID, *f.ProjectID)
				require.NotNil(t, f.AssignedTo)
				assert.Equal(t, assignee, *f.AssignedTo)
				assert.Equal(t, domain.TaskStatusInProgress, f.Status)
				assert.Equal(t, domain.TaskPriorityLow, f.Priority)
				return domain.NewListResult[*domain.Task](nil, 0, f.Page.Normalize(domain.MaxTaskPageLimit)), nil
			},
		})

		resp := api.GetCtx(ctx, "/tasks?projectId="+projectID.String()+"&assignedTo="+assignee.String()+"&status=in_progress&priority=low")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	})

	t.Run("nested_under_project", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleUser)
		_, api := humatest.New(t)
		v1.RegisterTaskRoutes(api, &mockTaskService{
			listByProjectFunc: func(_ context.Context, _ tenancy.Principal, pid uuid.UUID, f domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
				assert.Equal(t, projectID, pid)
				assert.Equal(t, domain.Page{Page: 1, Limit: 200}, f.Page)
				return domain.NewListResult([]*domain.Task{{Title: "a"}, {Title: "b"}}, 2, f.Page), nil
			},
		})

		resp := api.GetCtx(ctx, "/projects/"+projectID.String()+"/tasks?page=1&limit=200")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Len(t, decode[domain.ListResult[*domain.Task]](t, resp).Data.Items, 2)
	})

	t.Run("bad_assignee_id", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleUser)
		_, api := humatest.New(t)
		v1.RegisterTaskRoutes(api, &mockTaskService{})

		resp := api.GetCtx(ctx, "/tasks?assignedTo=bob")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestUpdateTaskStatus(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	ctx, p := userCtx(uuid.New(), domain.RoleUser)
	_, api := humatest.New(t)
	calls := 0
	v1.RegisterTaskRoutes(api, &mockTaskService{
		updateStatusFunc: func(_ context.Context, got tenancy.Principal, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
			calls++
			assert.Equal(t, p, got)
			if id != taskID {
				return nil, domain.ErrNotFound
			}
			return &domain.Task{ID: id, Status: status}, nil
		},
	})

	for range 2 {
		resp := api.PatchCtx(ctx, "/tasks/"+taskID.String()+"/status", map[string]any{"status": "completed"})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, domain.TaskStatusCompleted, decode[domain.Task](t, resp).Data.Status)
	}
	assert.Equal(t, 2, calls)

	resp := api.PatchCtx(ctx, "/tasks/"+uuid.NewString()+"/status", map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Task not found", decode[any](t, resp).Message)
}

func TestUpdateTask_Patch(t *testing.T) {
	t.Parallel()

	assignee := uuid.New()

	tests := []struct {
		name  string
		body  map[string]any
		check func(t *testing.T, patch domain.TaskPatch)
	}{
		{
			name: "reassign",
			body: map[string]any{"assignedTo": assignee.String()},
			check: func(t *testing.T, patch domain.TaskPatch) {
				require.NotNil(t, patch.AssignedTo)
				assert.Equal(t, assignee, *patch.AssignedTo)
				assert.False(t, patch.Unassign)
			},
		},
		{
			name: "unassign_and_clear_due",
			body: map[string]any{"assignedTo": "", "dueDate": ""},
			check: func(t *testing.T, patch domain.TaskPatch) {
				assert.Nil(t, patch.AssignedTo)
				assert.True(t, patch.Unassign)
				assert.True(t, patch.ClearDueDate)
			},
		},
		{
			name: "title_and_priority",
			body: map[string]any{"title": "Renamed", "priority": "low"},
			check: func(t *testing.T, patch domain.TaskPatch) {
				require.NotNil(t, patch.Title)
				assert.Equal(t, "Renamed", *patch.Title)
				require.NotNil(t, patch.Priority)
				assert.Equal(t, domain.TaskPriorityLow, *patch.Priority)
				assert.False(t, patch.Reassigns())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
			_, api := humatest.New(t)
			v1.RegisterTaskRoutes(api, &mockTaskService{
				updateFunc: func(_ context.Context, _ tenancy.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
					tt.check(t, patch)
					return &domain.Task{ID: id}, nil
				},
			})

			resp := api.PutCtx(ctx, "/tasks/"+uuid.NewString(), tt.body)
			assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		})
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
	_, api := humatest.New(t)
	v1.RegisterTaskRoutes(api, &mockTaskService{
		deleteFunc: func(_ context.Context, _ tenancy.Principal, _ uuid.UUID) error { return nil },
	})

	resp := api.DeleteCtx(ctx, "/tasks/"+uuid.NewString())

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Task deleted", decode[any](t, resp).Message)
}
