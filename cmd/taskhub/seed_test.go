package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/store/memory"
)

func TestSeedDemo_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	svcs := service.New(service.Deps{Store: store})

	require.NoError(t, seedDemo(ctx, store, svcs))
	audited := len(store.AuditEntries())
	assert.Positive(t, audited)

	require.NoError(t, seedDemo(ctx, store, svcs))
	assert.Len(t, store.AuditEntries(), audited, "second run must not write anything")

	tenant, err := store.Tenants().GetBySubdomain(ctx, demoSubdomain)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, tenant.SubscriptionPlan)

	users, err := store.Users().CountByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, users)

	authSvc := auth.NewService(store, "seed-test-secret-at-least-32-characters", nil)

	res, err := authSvc.Login(ctx, "admin@demo.com", demoPassword, demoSubdomain)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTenantAdmin, res.User.Role)

	res, err = authSvc.Login(ctx, superAdminEmail, demoPassword, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, res.User.Role)
}
