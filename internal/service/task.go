package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// TaskService manages tasks. Callers with role user only ever see tasks
// assigned to them; any other task is reported as not found.
type TaskService struct{ base }

type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  *uuid.UUID
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

var errForeignAssignee = domain.NewError(domain.ErrValidation, "Assigned user must belong to your company")

// checkAssignee verifies that userID is a member of tenantID.
func checkAssignee(ctx context.Context, r domain.Repositories, tenantID, userID uuid.UUID) error {
	_, err := r.Users().GetByID(ctx, tenantID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return errForeignAssignee
	}
	return err
}

func (s *TaskService) lookup(ctx context.Context, p tenancy.Principal, taskID uuid.UUID) (*domain.Task, error) {
	task, err := tenancy.Lookup(ctx, p, taskID, s.Store.Tasks().FindByID, s.Store.Tasks().GetByID)
	if err != nil {
		return nil, err
	}
	if p.Role == domain.RoleUser && (task.AssignedTo == nil || *task.AssignedTo != p.UserID) {
		return nil, fmt.Errorf("task %s not assigned to caller: %w", taskID, domain.ErrNotFound)
	}
	return task, nil
}

func (s *TaskService) publish(ctx context.Context, typ events.Type, task *domain.Task, data any) {
	s.Events.PublishBoard(ctx, task.TenantID, events.BoardEvent{
		Type:      typ,
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		Data:      data,
	})
}

// Create adds a task to a project in scope. The task inherits the
// project's tenant.
func (s *TaskService) Create(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, in CreateTaskInput) (*domain.Task, error) {
	project, err := tenancy.Lookup(ctx, p, projectID, s.Store.Projects().FindByID, s.Store.Projects().GetByID)
	if err != nil {
		return nil, fmt.Errorf("taskService.Create: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Task, policy.Create); err != nil {
		return nil, fmt.Errorf("taskService.Create: %w", err)
	}
	if in.AssignedTo != nil {
		if err := s.Policy.Authorize(p, policy.Task, policy.Assign); err != nil {
			return nil, fmt.Errorf("taskService.Create: %w", err)
		}
	}

	task, err := domain.NewTask(project, in.Title, in.Description, in.Priority, in.AssignedTo, in.DueDate)
	if err != nil {
		return nil, err
	}

	var created *domain.Task
	err = s.mutate(ctx, mutation{
		action:     domain.AuditCreateTask,
		entityType: domain.EntityTask,
		tenantID:   &task.TenantID,
		actor:      &p.UserID,
		entityID:   task.ID,
	}, func(r domain.Repositories) error {
		if task.AssignedTo != nil {
			if err := checkAssignee(ctx, r, task.TenantID, *task.AssignedTo); err != nil {
				return err
			}
		}
		if err := r.Tasks().Create(ctx, task); err != nil {
			return err
		}
		var err error
		created, err = r.Tasks().GetByID(ctx, task.TenantID, task.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("taskService.Create: %w", err)
	}

	s.publish(ctx, events.TaskCreated, created, created)
	return created, nil
}

// ListByProject lists the tasks of one project.
func (s *TaskService) ListByProject(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
	project, err := tenancy.Lookup(ctx, p, projectID, s.Store.Projects().FindByID, s.Store.Projects().GetByID)
	if err != nil {
		return domain.ListResult[*domain.Task]{}, fmt.Errorf("taskService.ListByProject: %w", err)
	}

	filter.ProjectID = &project.ID
	res, err := s.list(ctx, p, &project.TenantID, filter)
	if err != nil {
		return domain.ListResult[*domain.Task]{}, fmt.Errorf("taskService.ListByProject: %w", err)
	}
	return res, nil
}

// ListAll lists tasks across the caller's tenant, or every tenant for the
// super admin.
func (s *TaskService) ListAll(ctx context.Context, p tenancy.Principal, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
	res, err := s.list(ctx, p, tenancy.ListScope(p), filter)
	if err != nil {
		return domain.ListResult[*domain.Task]{}, fmt.Errorf("taskService.ListAll: %w", err)
	}
	return res, nil
}

func (s *TaskService) list(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
	if err := s.Policy.Authorize(p, policy.Task, policy.Read); err != nil {
		return domain.ListResult[*domain.Task]{}, err
	}
	if p.Role == domain.RoleUser {
		self := p.UserID
		filter.AssignedTo = &self
	}

	filter.Page = filter.Normalize(domain.MaxTaskPageLimit)
	tasks, total, err := s.Store.Tasks().List(ctx, tenantID, filter)
	if err != nil {
		return domain.ListResult[*domain.Task]{}, err
	}
	return domain.NewListResult(tasks, total, filter.Page), nil
}

func (s *TaskService) Get(ctx context.Context, p tenancy.Principal, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.lookup(ctx, p, taskID)
	if err != nil {
		return nil, fmt.Errorf("taskService.Get: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Task, policy.Read); err != nil {
		return nil, fmt.Errorf("taskService.Get: %w", err)
	}
	return task, nil
}

// UpdateStatus moves a task. Repeating the same status is allowed and is
// audited again.
func (s *TaskService) UpdateStatus(ctx context.Context, p tenancy.Principal, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if status == "" {
		return nil, domain.NewError(domain.ErrValidation, "Status is required")
	}
	if !status.Valid() {
		return nil, domain.NewError(domain.ErrValidation, "Invalid task status")
	}

	task, err := s.lookup(ctx, p, taskID)
	if err != nil {
		return nil, fmt.Errorf("taskService.UpdateStatus: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Task, policy.UpdateStatus); err != nil {
		return nil, fmt.Errorf("taskService.UpdateStatus: %w", err)
	}

	var updated *domain.Task
	err = s.mutate(ctx, mutation{
		action:     domain.AuditUpdateTaskStatus,
		entityType: domain.EntityTask,
		tenantID:   &task.TenantID,
		actor:      &p.UserID,
		entityID:   task.ID,
	}, func(r domain.Repositories) error {
		var err error
		updated, err = r.Tasks().UpdateStatus(ctx, task.TenantID, task.ID, status)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("taskService.UpdateStatus: %w", err)
	}

	s.publish(ctx, events.TaskMoved, updated, map[string]any{"from": task.Status, "to": updated.Status})
	return updated, nil
}

// Update applies a full patch. Reassigning needs the assign grant and the
// new assignee must be in the task's tenant.
func (s *TaskService) Update(ctx context.Context, p tenancy.Principal, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	task, err := s.lookup(ctx, p, taskID)
	if err != nil {
		return nil, fmt.Errorf("taskService.Update: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Task, policy.Update); err != nil {
		return nil, fmt.Errorf("taskService.Update: %w", err)
	}
	if patch.Reassigns() {
		if err := s.Policy.Authorize(p, policy.Task, policy.Assign); err != nil {
			return nil, fmt.Errorf("taskService.Update: %w", err)
		}
	}

	var updated *domain.Task
	err = s.mutate(ctx, mutation{
		action:     domain.AuditUpdateTask,
		entityType: domain.EntityTask,
		tenantID:   &task.TenantID,
		actor:      &p.UserID,
		entityID:   task.ID,
	}, func(r domain.Repositories) error {
		if patch.AssignedTo != nil {
			if err := checkAssignee(ctx, r, task.TenantID, *patch.AssignedTo); err != nil {
				return err
			}
		}
		var err error
		updated, err = r.Tasks().Update(ctx, task.TenantID, task.ID, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("taskService.Update: %w", err)
	}

	s.publish(ctx, events.TaskUpdated, updated, updated)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, p tenancy.Principal, taskID uuid.UUID) error {
	task, err := s.lookup(ctx, p, taskID)
	if err != nil {
		return fmt.Errorf("taskService.Delete: %w", err)
	}
	if err := s.Policy.Authorize(p, policy.Task, policy.Delete); err != nil {
		return fmt.Errorf("taskService.Delete: %w", err)
	}

	err = s.mutate(ctx, mutation{
		action:     domain.AuditDeleteTask,
		entityType: domain.EntityTask,
		tenantID:   &task.TenantID,
		actor:      &p.UserID,
		entityID:   task.ID,
	}, func(r domain.Repositories) error {
		return r.Tasks().Delete(ctx, task.TenantID, task.ID)
	})
	if err != nil {
		return fmt.Errorf("taskService.Delete: %w", err)
	}

	s.publish(ctx, events.TaskDeleted, task, nil)
	return nil
}
