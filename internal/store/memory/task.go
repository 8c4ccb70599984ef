package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type taskRepo struct{ repos }

func hydrateTask(st *state, t domain.Task) *domain.Task {
	t.Assignee = nil
	if t.AssignedTo != nil {
		if u, ok := st.users[*t.AssignedTo]; ok {
			t.Assignee = &domain.UserRef{ID: u.ID, FullName: u.FullName}
		}
	}
	t.ProjectName = ""
	if p, ok := st.projects[t.ProjectID]; ok {
		t.ProjectName = p.Name
	}
	return &t
}

// taskLess orders by priority rank, then due date with undated tasks last,
// then newest first.
func taskLess(a, b *domain.Task) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra < rb
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		return a.DueDate.Before(*b.DueDate)
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate == nil && b.DueDate != nil:
		return false
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r taskRepo) Create(_ context.Context, t *domain.Task) error {
	return r.do(func(st *state) error {
		p, ok := st.projects[t.ProjectID]
		if !ok || p.TenantID != t.TenantID {
			return fmt.Errorf("taskRepo.Create: tasks_project_fk: %w", ErrForeignKey)
		}
		if t.AssignedTo != nil {
			if _, ok := st.users[*t.AssignedTo]; !ok {
				return fmt.Errorf("taskRepo.Create: assigned_to: %w", ErrForeignKey)
			}
		}
		stored := *t
		stored.Assignee = nil
		stored.ProjectName = ""
		st.tasks[t.ID] = stored
		return nil
	})
}

func (r taskRepo) get(caller string, id uuid.UUID, tenantID *uuid.UUID) (*domain.Task, error) {
	var out *domain.Task
	err := r.do(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok || (tenantID != nil && t.TenantID != *tenantID) {
			return fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
		}
		out = hydrateTask(st, t)
		return nil
	})
	return out, err
}

func (r taskRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Task, error) {
	return r.get("taskRepo.GetByID", id, &tenantID)
}

func (r taskRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	return r.get("taskRepo.FindByID", id, nil)
}

func (r taskRepo) List(_ context.Context, tenantID *uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, int, error) {
	var (
		out   []*domain.Task
		total int
	)
	err := r.do(func(st *state) error {
		var all []*domain.Task
		for _, t := range st.tasks {
			if tenantID != nil && t.TenantID != *tenantID {
				continue
			}
			if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.Priority != "" && t.Priority != filter.Priority {
				continue
			}
			if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
				continue
			}
			if !matches(filter.Search, t.Title, t.Description) {
				continue
			}
			all = append(all, hydrateTask(st, t))
		}
		sort.SliceStable(all, func(i, j int) bool { return taskLess(all[i], all[j]) })
		total = len(all)
		out = paginate(all, filter.Page)
		return nil
	})
	return out, total, err
}

func (r taskRepo) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	err := r.do(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok || t.TenantID != tenantID {
			return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		switch {
		case patch.Unassign:
			t.AssignedTo = nil
		case patch.AssignedTo != nil:
			if _, ok := st.users[*patch.AssignedTo]; !ok {
				return fmt.Errorf("taskRepo.Update: assigned_to: %w", ErrForeignKey)
			}
			t.AssignedTo = ptr(*patch.AssignedTo)
		}
		switch {
		case patch.ClearDueDate:
			t.DueDate = nil
		case patch.DueDate != nil:
			t.DueDate = ptr(*patch.DueDate)
		}
		t.UpdatedAt = time.Now()
		st.tasks[id] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r taskRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	return r.Update(ctx, tenantID, id, domain.TaskPatch{Status: &status})
}

func (r taskRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	return r.do(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok || t.TenantID != tenantID {
			return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
		}
		delete(st.tasks, id)
		return nil
	})
}

func (r taskRepo) Counts(_ context.Context, tenantID, assignedTo *uuid.UUID) (domain.TaskCounts, error) {
	var c domain.TaskCounts
	err := r.do(func(st *state) error {
		for _, t := range st.tasks {
			if tenantID != nil && t.TenantID != *tenantID {
				continue
			}
			if assignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *assignedTo) {
				continue
			}
			c.Total++
			if t.Status == domain.TaskStatusCompleted {
				c.Completed++
			}
		}
		return nil
	})
	return c, err
}
