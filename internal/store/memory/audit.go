package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type auditRepo struct{ repos }

func (r auditRepo) Record(_ context.Context, entry *domain.AuditEntry) error {
	return r.do(func(st *state) error {
		if r.s.failAudit != nil {
			return fmt.Errorf("auditRepo.Record: %w", r.s.failAudit)
		}
		stored := *entry
		stored.UserName = ""
		st.audit = append(st.audit, stored)
		return nil
	})
}

func (r auditRepo) ListRecent(_ context.Context, tenantID *uuid.UUID, limit int) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	err := r.do(func(st *state) error {
		for i := len(st.audit) - 1; i >= 0 && len(out) < limit; i-- {
			e := st.audit[i]
			if tenantID != nil && (e.TenantID == nil || *e.TenantID != *tenantID) {
				continue
			}
			if e.UserID != nil {
				if u, ok := st.users[*e.UserID]; ok {
					e.UserName = u.FullName
				}
			}
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}
