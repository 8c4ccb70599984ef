package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

const projectSelect = `SELECT p.id, p.tenant_id, p.name, p.description, p.status, p.created_by, u.full_name,
        (SELECT count(*) FROM tasks t WHERE t.project_id = p.id) AS task_count,
        p.created_at, p.updated_at
 FROM projects p
 LEFT JOIN users u ON u.id = p.created_by`

type ProjectRepo struct {
	db querier
}

func NewProjectRepo(db querier) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (id, tenant_id, name, description, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, p.CreatedByID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Create: %w", mapWriteError(err))
	}

	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Project, error) {
	row := r.db.QueryRow(ctx, projectSelect+` WHERE p.tenant_id = $1 AND p.id = $2`, tenantID, id)
	return scanProject(row, "projectRepo.GetByID")
}

func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := r.db.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id)
	return scanProject(row, "projectRepo.FindByID")
}

func (r *ProjectRepo) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET
		        name = COALESCE($3, name),
		        description = COALESCE($4, description),
		        status = COALESCE($5, status),
		        updated_at = now()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, patch.Name, patch.Description, patch.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("projectRepo.Update: %w", domain.ErrNotFound)
	}

	return r.GetByID(ctx, tenantID, id)
}

// Delete removes the project; its tasks go with it through ON DELETE CASCADE.
func (r *ProjectRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM projects WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ProjectRepo) List(ctx context.Context, tenantID *uuid.UUID, filter domain.ProjectFilter) ([]*domain.Project, int, error) {
	var w whereBuilder
	if tenantID != nil {
		w.add("p.tenant_id = $%d", *tenantID)
	}
	if filter.Status != "" {
		w.add("p.status = $%d", filter.Status)
	}
	w.search(filter.Search, "p.name", "p.description")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM projects p`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("projectRepo.List: count: %w", err)
	}

	suffix, args := w.paginate(filter.Page)
	rows, err := r.db.Query(ctx, projectSelect+w.sql()+` ORDER BY p.created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("projectRepo.List: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows, "projectRepo.List")
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("projectRepo.List: rows: %w", err)
	}

	return projects, total, nil
}

func (r *ProjectRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM projects WHERE tenant_id = $1`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("projectRepo.CountByTenant: %w", err)
	}
	return n, nil
}

func (r *ProjectRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("projectRepo.Count: %w", err)
	}
	return n, nil
}

func scanProject(row pgx.Row, caller string) (*domain.Project, error) {
	var p domain.Project
	var creatorName *string
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedByID, &creatorName,
		&p.TaskCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	if p.CreatedByID != nil && creatorName != nil {
		p.CreatedBy = &domain.UserRef{ID: *p.CreatedByID, FullName: *creatorName}
	}

	return &p, nil
}
