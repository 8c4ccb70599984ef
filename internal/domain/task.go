package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

func (p TaskPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities for listing: high=1, medium=2, low=3, unknown=0.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 3
	default:
		return 0
	}
}

type Task struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"projectId"`
	TenantID    uuid.UUID    `json:"tenantId"` // always equal to the project's tenant
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AssignedTo  *uuid.UUID   `json:"assignedTo"`
	Assignee    *UserRef     `json:"assignee,omitempty"`
	ProjectName string       `json:"projectName,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     *time.Time   `json:"dueDate"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTask creates a Task under project. The tenant is copied from the project.
func NewTask(project *Project, title, description string, priority TaskPriority, assignedTo *uuid.UUID, dueDate *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewError(ErrValidation, "Task title is required")
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, NewError(ErrValidation, "Invalid task priority")
	}
	now := time.Now()
	return &Task{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		TenantID:    project.TenantID,
		Title:       title,
		Description: description,
		AssignedTo:  assignedTo,
		Priority:    priority,
		Status:      TaskStatusTodo,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TaskPatch carries the fields of a partial task update. Nil means
// unchanged; Unassign and ClearDueDate null the column explicitly.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	Priority     *TaskPriority
	AssignedTo   *uuid.UUID
	Unassign     bool
	DueDate      *time.Time
	ClearDueDate bool
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.AssignedTo == nil && !p.Unassign && p.DueDate == nil && !p.ClearDueDate
}

// Reassigns reports whether the patch changes the assignee.
func (p TaskPatch) Reassigns() bool {
	return p.AssignedTo != nil || p.Unassign
}

func (p TaskPatch) Validate() error {
	if p.Empty() {
		return NewError(ErrValidation, "No valid fields provided")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return NewError(ErrValidation, "Task title cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewError(ErrValidation, "Invalid task status")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return NewError(ErrValidation, "Invalid task priority")
	}
	return nil
}

type TaskFilter struct {
	ProjectID  *uuid.UUID
	Status     TaskStatus
	Priority   TaskPriority
	AssignedTo *uuid.UUID
	Search     string
	Page
}

// TaskCounts is the aggregate used by the dashboard.
type TaskCounts struct {
	Total     int
	Completed int
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Task, error)
	// FindByID looks a task up without a tenant filter. Used only to resolve
	// the owning tenant for super admin requests.
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// List returns one page ordered by priority rank then due date, and the
	// total match count.
	List(ctx context.Context, tenantID *uuid.UUID, filter TaskFilter) ([]*Task, int, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, patch TaskPatch) (*Task, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status TaskStatus) (*Task, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// Counts aggregates tasks. A nil tenantID counts across tenants; a non-nil
	// assignedTo restricts to that assignee.
	Counts(ctx context.Context, tenantID, assignedTo *uuid.UUID) (TaskCounts, error)
}
