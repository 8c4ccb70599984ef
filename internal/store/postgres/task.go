package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

const taskSelect = `SELECT t.id, t.project_id, t.tenant_id, t.title, t.description, t.assigned_to, u.full_name,
        p.name, t.priority, t.status, t.due_date, t.created_at, t.updated_at
 FROM tasks t
 JOIN projects p ON p.id = t.project_id
 LEFT JOIN users u ON u.id = t.assigned_to`

const taskOrder = ` ORDER BY CASE t.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
        t.due_date ASC NULLS LAST, t.created_at DESC`

type TaskRepo struct {
	db querier
}

func NewTaskRepo(db querier) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, project_id, tenant_id, title, description, assigned_to, priority, status, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.ProjectID, t.TenantID, t.Title, t.Description, t.AssignedTo,
		t.Priority, t.Status, t.DueDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", mapWriteError(err))
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, taskSelect+` WHERE t.tenant_id = $1 AND t.id = $2`, tenantID, id)
	return scanTask(row, "taskRepo.GetByID")
}

func (r *TaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id)
	return scanTask(row, "taskRepo.FindByID")
}

// List filters on tenantID unless it is nil (super admin view).
func (r *TaskRepo) List(ctx context.Context, tenantID *uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, int, error) {
	var w whereBuilder
	if tenantID != nil {
		w.add("t.tenant_id = $%d", *tenantID)
	}
	if filter.ProjectID != nil {
		w.add("t.project_id = $%d", *filter.ProjectID)
	}
	if filter.Status != "" {
		w.add("t.status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		w.add("t.priority = $%d", filter.Priority)
	}
	if filter.AssignedTo != nil {
		w.add("t.assigned_to = $%d", *filter.AssignedTo)
	}
	w.search(filter.Search, "t.title", "t.description")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tasks t`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("taskRepo.List: count: %w", err)
	}

	suffix, args := w.paginate(filter.Page)
	rows, err := r.db.Query(ctx, taskSelect+w.sql()+taskOrder+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("taskRepo.List: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows, "taskRepo.List")
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("taskRepo.List: rows: %w", err)
	}

	return tasks, total, nil
}

func (r *TaskRepo) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET
		        title = COALESCE($3, title),
		        description = COALESCE($4, description),
		        status = COALESCE($5, status),
		        priority = COALESCE($6, priority),
		        assigned_to = CASE WHEN $7::boolean THEN NULL ELSE COALESCE($8, assigned_to) END,
		        due_date = CASE WHEN $9::boolean THEN NULL ELSE COALESCE($10, due_date) END,
		        updated_at = now()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, patch.Title, patch.Description, patch.Status, patch.Priority,
		patch.Unassign, patch.AssignedTo, patch.ClearDueDate, patch.DueDate,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}

	return r.GetByID(ctx, tenantID, id)
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
		status, tenantID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("taskRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return r.GetByID(ctx, tenantID, id)
}

func (r *TaskRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) Counts(ctx context.Context, tenantID, assignedTo *uuid.UUID) (domain.TaskCounts, error) {
	var w whereBuilder
	if tenantID != nil {
		w.add("tenant_id = $%d", *tenantID)
	}
	if assignedTo != nil {
		w.add("assigned_to = $%d", *assignedTo)
	}

	var c domain.TaskCounts
	err := r.db.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE status = 'completed') FROM tasks`+w.sql(),
		w.args...,
	).Scan(&c.Total, &c.Completed)
	if err != nil {
		return domain.TaskCounts{}, fmt.Errorf("taskRepo.Counts: %w", err)
	}

	return c, nil
}

func scanTask(row pgx.Row, caller string) (*domain.Task, error) {
	var t domain.Task
	var assigneeName *string
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &t.Description, &t.AssignedTo, &assigneeName,
		&t.ProjectName, &t.Priority, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	if t.AssignedTo != nil && assigneeName != nil {
		t.Assignee = &domain.UserRef{ID: *t.AssignedTo, FullName: *assigneeName}
	}

	return &t, nil
}
