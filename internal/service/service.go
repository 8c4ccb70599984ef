// Package service implements the tenant, user, project, task, dashboard and
// audit operations. Every operation resolves the tenant scope first, then
// consults the policy, then runs its queries. Mutations commit together with
// exactly one audit row.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/notify"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// Deps are the collaborators shared by all services. Events, Notifier and
// Metrics may be nil.
type Deps struct {
	Store    domain.Store
	Policy   *policy.Policy
	Events   *events.Publisher
	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
}

// Services bundles every resource service.
type Services struct {
	Tenants   *TenantService
	Users     *UserService
	Projects  *ProjectService
	Tasks     *TaskService
	Dashboard *DashboardService
	Audit     *AuditService
}

// New wires all services over the same dependencies.
func New(d Deps) *Services {
	if d.Policy == nil {
		d.Policy = policy.MustNew()
	}
	b := base{d}
	return &Services{
		Tenants:   &TenantService{b},
		Users:     &UserService{b},
		Projects:  &ProjectService{b},
		Tasks:     &TaskService{b},
		Dashboard: &DashboardService{b},
		Audit:     &AuditService{b},
	}
}

type base struct {
	Deps
}

// mutation is an audited write. fn runs inside the transaction; the audit row
// is appended after it succeeds and before commit.
type mutation struct {
	action     domain.AuditAction
	entityType string
	tenantID   *uuid.UUID
	actor      *uuid.UUID
	entityID   uuid.UUID
}

func (b base) mutate(ctx context.Context, m mutation, fn func(r domain.Repositories) error) error {
	err := b.Store.WithinTx(ctx, func(r domain.Repositories) error {
		if err := fn(r); err != nil {
			return err
		}
		entry := domain.NewAuditEntry(m.tenantID, m.actor, m.action, m.entityType, m.entityID)
		if err := r.Audit().Record(ctx, entry); err != nil {
			return fmt.Errorf("record %s: %w", m.action, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.Metrics.AuditRecorded(string(m.action))
	log.Debug().
		Str("action", string(m.action)).
		Str("entity_type", m.entityType).
		Str("entity_id", m.entityID.String()).
		Msg("audit recorded")
	return nil
}

func (b base) notify(ctx context.Context, text string) {
	if err := b.Notifier.Notify(ctx, text); err != nil {
		log.Warn().Err(err).Msg("service: ops notification failed")
	}
}

func (b base) limitExceeded(resource string, limit int) error {
	b.Metrics.LimitRejected(resource)
	return domain.NewError(domain.ErrLimitExceeded,
		fmt.Sprintf("Subscription limit reached: your plan allows at most %d %ss", limit, resource))
}

// tenantOf returns the tenant a principal acts in, taking an explicit target
// tenant into account (nil means "my own tenant").
func tenantOf(p tenancy.Principal, target *uuid.UUID) (uuid.UUID, error) {
	if target == nil {
		return tenancy.RequireTenant(p)
	}
	return tenancy.ForTenantPath(p, *target)
}

// conflictAs rewrites a unique violation into a client-safe message.
func conflictAs(err error, msg string) error {
	if errors.Is(err, domain.ErrConflict) {
		return domain.NewError(domain.ErrConflict, msg)
	}
	return err
}
