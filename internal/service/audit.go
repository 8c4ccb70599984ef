package service

import (
	"context"
	"fmt"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// AuditService reads the audit log. Writes happen inside each mutation.
type AuditService struct{ base }

// Recent returns the latest entries, newest first, limited to the caller's
// tenant unless they are the super admin.
func (s *AuditService) Recent(ctx context.Context, p tenancy.Principal) ([]*domain.AuditEntry, error) {
	if err := s.Policy.Authorize(p, policy.Audit, policy.Read); err != nil {
		return nil, fmt.Errorf("auditService.Recent: %w", err)
	}

	entries, err := s.Store.Audit().ListRecent(ctx, tenancy.ListScope(p), domain.AuditListLimit)
	if err != nil {
		return nil, fmt.Errorf("auditService.Recent: %w", err)
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return entries, nil
}
