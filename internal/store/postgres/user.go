package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

const userColumns = `id, tenant_id, email, password_hash, full_name, role, is_active, created_at, updated_at`

type UserRepo struct {
	db querier
}

func NewUserRepo(db querier) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.FullName,
		u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", mapWriteError(err))
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	return scanUser(row, "userRepo.GetByID")
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "userRepo.FindByID")
}

func (r *UserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND email = $2`,
		tenantID, email,
	)
	return scanUser(row, "userRepo.GetByEmail")
}

func (r *UserRepo) GetSuperAdminByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE tenant_id IS NULL AND role = 'super_admin' AND email = $1`,
		email,
	)
	return scanUser(row, "userRepo.GetSuperAdminByEmail")
}

// Update writes the mutable fields of u. The tenant filter uses IS NOT
// DISTINCT FROM so the tenant-less super admin row can be matched too.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET full_name = $1, role = $2, is_active = $3, updated_at = now()
		 WHERE id = $4 AND tenant_id IS NOT DISTINCT FROM $5`,
		u.FullName, u.Role, u.IsActive, u.ID, u.TenantID,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// Delete removes the user. Foreign keys null out tasks.assigned_to,
// projects.created_by and audit_logs.user_id.
func (r *UserRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM users WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) List(ctx context.Context, tenantID uuid.UUID, filter domain.UserFilter) ([]*domain.User, int, error) {
	var w whereBuilder
	w.add("tenant_id = $%d", tenantID)
	if filter.Role != "" {
		w.add("role = $%d", filter.Role)
	}
	if filter.IsActive != nil {
		w.add("is_active = $%d", *filter.IsActive)
	}
	w.search(filter.Search, "full_name", "email")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: count: %w", err)
	}

	suffix, args := w.paginate(filter.Page)
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users`+w.sql()+` ORDER BY created_at DESC`+suffix,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows, "userRepo.List")
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: rows: %w", err)
	}

	return users, total, nil
}

func (r *UserRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("userRepo.CountByTenant: %w", err)
	}
	return n, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("userRepo.Count: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row, caller string) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	return &u, nil
}
