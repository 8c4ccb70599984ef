package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/notify"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/store/memory"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// recordingSender captures ops notifications.
type recordingSender struct {
	mu   sync.Mutex
	msgs []string
}

func (s *recordingSender) Platform() string { return "test" }

func (s *recordingSender) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, text)
	return nil
}

func (s *recordingSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

// fixture has two tenants: acme (pro plan) with an admin and two users,
// and globex (free plan) with an admin. Plus the system super admin.
type fixture struct {
	store  *memory.Store
	svc    *service.Services
	broker *events.Local
	sender *recordingSender
	reg    *prometheus.Registry

	acme        *domain.Tenant
	globex      *domain.Tenant
	acmeAdmin   *domain.User
	alice       *domain.User
	bob         *domain.User
	globexAdmin *domain.User
	super       *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  memory.New(),
		broker: events.NewLocal(),
		sender: &recordingSender{},
		reg:    prometheus.NewRegistry(),
	}

	m := metrics.New(f.reg)
	senders := notify.NewRegistry()
	senders.Register(f.sender)

	f.svc = service.New(service.Deps{
		Store:    f.store,
		Events:   events.NewPublisher(f.broker, m),
		Notifier: notify.New(senders),
		Metrics:  m,
	})

	f.acme = f.seedTenant(t, "Acme", "acme", domain.PlanPro)
	f.globex = f.seedTenant(t, "Globex", "globex", domain.PlanFree)
	f.acmeAdmin = f.seedUser(t, f.acme, "admin@acme.com", "Acme Admin", domain.RoleTenantAdmin)
	f.alice = f.seedUser(t, f.acme, "alice@acme.com", "Alice", domain.RoleUser)
	f.bob = f.seedUser(t, f.acme, "bob@acme.com", "Bob", domain.RoleUser)
	f.globexAdmin = f.seedUser(t, f.globex, "admin@globex.com", "Globex Admin", domain.RoleTenantAdmin)

	f.super = &domain.User{
		ID:       uuid.New(),
		Email:    "superadmin@system.com",
		FullName: "Super Admin",
		Role:     domain.RoleSuperAdmin,
		IsActive: true,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), f.super))

	return f
}

func (f *fixture) seedTenant(t *testing.T, name, sub string, plan domain.SubscriptionPlan) *domain.Tenant {
	t.Helper()

	tenant, err := domain.NewTenant(name, sub, plan)
	require.NoError(t, err)
	require.NoError(t, f.store.Tenants().Create(context.Background(), tenant))
	return tenant
}

func (f *fixture) seedUser(t *testing.T, tenant *domain.Tenant, email, name string, role domain.Role) *domain.User {
	t.Helper()

	u, err := domain.NewUser(tenant.ID, email, name, role)
	require.NoError(t, err)
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func principal(u *domain.User) tenancy.Principal {
	return tenancy.Principal{UserID: u.ID, TenantID: u.TenantID, Role: u.Role}
}

func (f *fixture) project(t *testing.T, by *domain.User, name string) *domain.Project {
	t.Helper()

	p, err := f.svc.Projects.Create(context.Background(), principal(by), service.CreateProjectInput{Name: name})
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, by *domain.User, projectID uuid.UUID, title string, assignee *uuid.UUID) *domain.Task {
	t.Helper()

	task, err := f.svc.Tasks.Create(context.Background(), principal(by), projectID, service.CreateTaskInput{
		Title:      title,
		AssignedTo: assignee,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) auditActions() []domain.AuditAction {
	var out []domain.AuditAction
	for _, e := range f.store.AuditEntries() {
		out = append(out, e.Action)
	}
	return out
}
