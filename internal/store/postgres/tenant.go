package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

const tenantColumns = `id, name, subdomain, status, subscription_plan, max_users, max_projects, created_at, updated_at`

type TenantRepo struct {
	db querier
}

func NewTenantRepo(db querier) *TenantRepo {
	return &TenantRepo{db: db}
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tenants (`+tenantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Subdomain, t.Status, t.SubscriptionPlan,
		t.MaxUsers, t.MaxProjects, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.Create: %w", mapWriteError(err))
	}

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row, "tenantRepo.GetByID")
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain)
	return scanTenant(row, "tenantRepo.GetBySubdomain")
}

func (r *TenantRepo) LockByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, id)
	return scanTenant(row, "tenantRepo.LockByID")
}

func (r *TenantRepo) Update(ctx context.Context, id uuid.UUID, patch domain.TenantPatch) (*domain.Tenant, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE tenants SET
		        name = COALESCE($2, name),
		        status = COALESCE($3, status),
		        subscription_plan = COALESCE($4, subscription_plan),
		        max_users = COALESCE($5, max_users),
		        max_projects = COALESCE($6, max_projects),
		        updated_at = now()
		 WHERE id = $1
		 RETURNING `+tenantColumns,
		id, patch.Name, patch.Status, patch.SubscriptionPlan, patch.MaxUsers, patch.MaxProjects,
	)
	return scanTenant(row, "tenantRepo.Update")
}

func (r *TenantRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.SetStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.SetStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TenantRepo) List(ctx context.Context, filter domain.TenantFilter) ([]*domain.Tenant, int, error) {
	var w whereBuilder
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	if filter.SubscriptionPlan != "" {
		w.add("subscription_plan = $%d", filter.SubscriptionPlan)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tenants`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tenantRepo.List: count: %w", err)
	}

	suffix, args := w.paginate(filter.Page)
	rows, err := r.db.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants`+w.sql()+` ORDER BY created_at DESC`+suffix,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("tenantRepo.List: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows, "tenantRepo.List")
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("tenantRepo.List: rows: %w", err)
	}

	return tenants, total, nil
}

func (r *TenantRepo) Stats(ctx context.Context, id uuid.UUID) (*domain.TenantStats, error) {
	var s domain.TenantStats
	err := r.db.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM users WHERE tenant_id = $1),
		        (SELECT count(*) FROM projects WHERE tenant_id = $1),
		        (SELECT count(*) FROM tasks WHERE tenant_id = $1)`,
		id,
	).Scan(&s.TotalUsers, &s.TotalProjects, &s.TotalTasks)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.Stats: %w", err)
	}

	return &s, nil
}

func (r *TenantRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tenants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("tenantRepo.Count: %w", err)
	}
	return n, nil
}

func scanTenant(row pgx.Row, caller string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionPlan,
		&t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	return &t, nil
}
