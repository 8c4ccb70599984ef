package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskhub/internal/domain"
)

type AuditRepo struct {
	db querier
}

func NewAuditRepo(db querier) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.TenantID, entry.UserID, entry.Action,
		entry.EntityType, entry.EntityID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*domain.AuditEntry, error) {
	var w whereBuilder
	if tenantID != nil {
		w.add("a.tenant_id = $%d", *tenantID)
	}
	args := append(w.args, limit)

	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.tenant_id, a.user_id, u.full_name, a.action, a.entity_type, a.entity_id, a.created_at
		 FROM audit_logs a
		 LEFT JOIN users u ON u.id = a.user_id`+w.sql()+`
		 ORDER BY a.created_at DESC
		 LIMIT $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListRecent: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListRecent")
}

func scanAuditEntries(rows pgx.Rows, caller string) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var userName *string
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.UserID, &userName, &e.Action,
			&e.EntityType, &e.EntityID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if userName != nil {
			e.UserName = *userName
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
