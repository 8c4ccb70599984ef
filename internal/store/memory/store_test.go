package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/store/memory"
)

func seedTenant(t *testing.T, s *memory.Store, sub string) (*domain.Tenant, *domain.User) {
	t.Helper()

	ctx := context.Background()
	tenant, err := domain.NewTenant("Acme "+sub, sub, domain.PlanFree)
	require.NoError(t, err)
	require.NoError(t, s.Tenants().Create(ctx, tenant))

	admin, err := domain.NewUser(tenant.ID, "admin@"+sub+".com", "Admin "+sub, domain.RoleTenantAdmin)
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, admin))

	return tenant, admin
}

func TestWithinTx_RollbackDiscardsWrites(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(r domain.Repositories) error {
		tenant, err := domain.NewTenant("Demo", "demo", domain.PlanFree)
		require.NoError(t, err)
		require.NoError(t, r.Tenants().Create(ctx, tenant))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Tenants().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, s.Rollbacks())
	assert.Zero(t, s.Commits())
}

func TestTenantRepo_DuplicateSubdomain(t *testing.T) {
	t.Parallel()

	s := memory.New()
	seedTenant(t, s, "demo")

	dup, err := domain.NewTenant("Other", "demo", domain.PlanFree)
	require.NoError(t, err)
	require.ErrorIs(t, s.Tenants().Create(context.Background(), dup), domain.ErrConflict)
}

func TestUserRepo_EmailUniquePerTenant(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := context.Background()
	a, _ := seedTenant(t, s, "alpha")
	b, _ := seedTenant(t, s, "beta")

	same, err := domain.NewUser(a.ID, "admin@alpha.com", "Dup", domain.RoleUser)
	require.NoError(t, err)
	require.ErrorIs(t, s.Users().Create(ctx, same), domain.ErrConflict)

	other, err := domain.NewUser(b.ID, "admin@alpha.com", "Elsewhere", domain.RoleUser)
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, other))
}

func TestProjectRepo_DeleteCascadesTasks(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := context.Background()
	tenant, admin := seedTenant(t, s, "demo")

	project, err := domain.NewProject(tenant.ID, "Apollo", "", "", admin.ID)
	require.NoError(t, err)
	require.NoError(t, s.Projects().Create(ctx, project))

	var ids []uuid.UUID
	for _, title := range []string{"a", "b", "c"} {
		task, err := domain.NewTask(project, title, "", "", nil, nil)
		require.NoError(t, err)
		require.NoError(t, s.Tasks().Create(ctx, task))
		ids = append(ids, task.ID)
	}

	got, err := s.Projects().GetByID(ctx, tenant.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TaskCount)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, admin.FullName, got.CreatedBy.FullName)

	require.NoError(t, s.Projects().Delete(ctx, tenant.ID, project.ID))
	for _, id := range ids {
		_, err := s.Tasks().FindByID(ctx, id)
		require.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestUserRepo_DeleteNullsReferences(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := context.Background()
	tenant, admin := seedTenant(t, s, "demo")

	member, err := domain.NewUser(tenant.ID, "bob@demo.com", "Bob", domain.RoleTenantAdmin)
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, member))

	p1, _ := domain.NewProject(tenant.ID, "One", "", "", member.ID)
	p2, _ := domain.NewProject(tenant.ID, "Two", "", "", member.ID)
	require.NoError(t, s.Projects().Create(ctx, p1))
	require.NoError(t, s.Projects().Create(ctx, p2))

	task, _ := domain.NewTask(p1, "Write", "", "", &member.ID, nil)
	require.NoError(t, s.Tasks().Create(ctx, task))
	require.NoError(t, s.Audit().Record(ctx, domain.NewAuditEntry(&tenant.ID, &member.ID, domain.AuditLogin, domain.EntityUser, member.ID)))

	require.NoError(t, s.Users().Delete(ctx, tenant.ID, member.ID))

	for _, id := range []uuid.UUID{p1.ID, p2.ID} {
		p, err := s.Projects().GetByID(ctx, tenant.ID, id)
		require.NoError(t, err)
		assert.Nil(t, p.CreatedByID)
		assert.Nil(t, p.CreatedBy)
	}

	got, err := s.Tasks().GetByID(ctx, tenant.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)

	entries, err := s.Audit().ListRecent(ctx, &tenant.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)

	_, err = s.Users().GetByID(ctx, tenant.ID, admin.ID)
	require.NoError(t, err)
}

func TestTaskRepo_ListOrdering(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := context.Background()
	tenant, admin := seedTenant(t, s, "demo")
	project, _ := domain.NewProject(tenant.ID, "Apollo", "", "", admin.ID)
	require.NoError(t, s.Projects().Create(ctx, project))

	soon := time.Now().Add(24 * time.Hour)
	later := soon.Add(24 * time.Hour)

	mk := func(title string, prio domain.TaskPriority, due *time.Time) {
		task, err := domain.NewTask(project, title, "", prio, nil, due)
		require.NoError(t, err)
		require.NoError(t, s.Tasks().Create(ctx, task))
	}
	mk("low", domain.TaskPriorityLow, &soon)
	mk("high-undated", domain.TaskPriorityHigh, nil)
	mk("high-later", domain.TaskPriorityHigh, &later)
	mk("high-soon", domain.TaskPriorityHigh, &soon)
	mk("medium", domain.TaskPriorityMedium, nil)

	tasks, total, err := s.Tasks().List(ctx, &tenant.ID, domain.TaskFilter{Page: domain.Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"high-soon", "high-later", "high-undated", "medium", "low"}, titles)
}

func TestAuditRepo_ListRecentScopesAndLimits(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := context.Background()
	a, adminA := seedTenant(t, s, "alpha")
	b, adminB := seedTenant(t, s, "beta")

	for range 3 {
		require.NoError(t, s.Audit().Record(ctx, domain.NewAuditEntry(&a.ID, &adminA.ID, domain.AuditLogin, domain.EntityUser, adminA.ID)))
	}
	require.NoError(t, s.Audit().Record(ctx, domain.NewAuditEntry(&b.ID, &adminB.ID, domain.AuditLogout, domain.EntityUser, adminB.ID)))

	scoped, err := s.Audit().ListRecent(ctx, &a.ID, 2)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, adminA.FullName, scoped[0].UserName)

	all, err := s.Audit().ListRecent(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, domain.AuditLogout, all[0].Action)
}
