package v1_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the principal the way middleware.Auth does
// ---------------------------------------------------------------------------

func principalCtx(p tenancy.Principal) context.Context {
	return middleware.WithPrincipal(context.Background(), p)
}

func userCtx(tenantID uuid.UUID, role domain.Role) (context.Context, tenancy.Principal) {
	p := tenancy.Principal{UserID: uuid.New(), TenantID: &tenantID, Role: role}
	return principalCtx(p), p
}

func superCtx() (context.Context, tenancy.Principal) {
	p := tenancy.Principal{UserID: uuid.New(), Role: domain.RoleSuperAdmin}
	return principalCtx(p), p
}

// envelope decodes a response body into {success, data, message}.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()

	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc  func(ctx context.Context, email, password, subdomain string) (*auth.LoginResult, error)
	meFunc     func(ctx context.Context, userID uuid.UUID) (*auth.Identity, error)
	logoutFunc func(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password, subdomain string) (*auth.LoginResult, error) {
	return m.loginFunc(ctx, email, password, subdomain)
}

func (m *mockAuthService) Me(ctx context.Context, userID uuid.UUID) (*auth.Identity, error) {
	return m.meFunc(ctx, userID)
}

func (m *mockAuthService) Logout(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID) error {
	return m.logoutFunc(ctx, userID, tenantID)
}

// ---------------------------------------------------------------------------
// Mock TenantService
// ---------------------------------------------------------------------------

type mockTenantService struct {
	registerFunc func(ctx context.Context, in service.RegisterTenantInput) (*service.Registration, error)
	createFunc   func(ctx context.Context, p tenancy.Principal, in service.RegisterTenantInput) (*service.Registration, error)
	listFunc     func(ctx context.Context, p tenancy.Principal, filter domain.TenantFilter) (domain.ListResult[*domain.Tenant], error)
	getFunc      func(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*service.TenantDetails, error)
	updateFunc   func(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.TenantPatch) (*domain.Tenant, error)
}

func (m *mockTenantService) Register(ctx context.Context, in service.RegisterTenantInput) (*service.Registration, error) {
	return m.registerFunc(ctx, in)
}

func (m *mockTenantService) Create(ctx context.Context, p tenancy.Principal, in service.RegisterTenantInput) (*service.Registration, error) {
	return m.createFunc(ctx, p, in)
}

func (m *mockTenantService) List(ctx context.Context, p tenancy.Principal, filter domain.TenantFilter) (domain.ListResult[*domain.Tenant], error) {
	return m.listFunc(ctx, p, filter)
}

func (m *mockTenantService) Get(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*service.TenantDetails, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockTenantService) Update(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.TenantPatch) (*domain.Tenant, error) {
	return m.updateFunc(ctx, p, id, patch)
}

// ---------------------------------------------------------------------------
// Mock UserService
// ---------------------------------------------------------------------------

type mockUserService struct {
	listFunc   func(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, filter domain.UserFilter) (domain.ListResult[*domain.User], error)
	getFunc    func(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*domain.User, error)
	createFunc func(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, in service.CreateUserInput) (*domain.User, error)
	updateFunc func(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.UserPatch) (*domain.User, error)
	deleteFunc func(ctx context.Context, p tenancy.Principal, id uuid.UUID) error
}

func (m *mockUserService) List(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, filter domain.UserFilter) (domain.ListResult[*domain.User], error) {
	return m.listFunc(ctx, p, tenantID, filter)
}

func (m *mockUserService) Get(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*domain.User, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockUserService) Create(ctx context.Context, p tenancy.Principal, tenantID *uuid.UUID, in service.CreateUserInput) (*domain.User, error) {
	return m.createFunc(ctx, p, tenantID, in)
}

func (m *mockUserService) Update(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	return m.updateFunc(ctx, p, id, patch)
}

func (m *mockUserService) Delete(ctx context.Context, p tenancy.Principal, id uuid.UUID) error {
	return m.deleteFunc(ctx, p, id)
}

// ---------------------------------------------------------------------------
// Mock ProjectService
// ---------------------------------------------------------------------------

type mockProjectService struct {
	listFunc   func(ctx context.Context, p tenancy.Principal, filter domain.ProjectFilter) (domain.ListResult[*domain.Project], error)
	getFunc    func(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*service.ProjectDetails, error)
	createFunc func(ctx context.Context, p tenancy.Principal, in service.CreateProjectInput) (*domain.Project, error)
	updateFunc func(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error)
	deleteFunc func(ctx context.Context, p tenancy.Principal, id uuid.UUID) error
}

func (m *mockProjectService) List(ctx context.Context, p tenancy.Principal, filter domain.ProjectFilter) (domain.ListResult[*domain.Project], error) {
	return m.listFunc(ctx, p, filter)
}

func (m *mockProjectService) Get(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*service.ProjectDetails, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockProjectService) Create(ctx context.Context, p tenancy.Principal, in service.CreateProjectInput) (*domain.Project, error) {
	return m.createFunc(ctx, p, in)
}

func (m *mockProjectService) Update(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.ProjectPatch) (*domain.Project, error) {
	return m.updateFunc(ctx, p, id, patch)
}

func (m *mockProjectService) Delete(ctx context.Context, p tenancy.Principal, id uuid.UUID) error {
	return m.deleteFunc(ctx, p, id)
}

// ---------------------------------------------------------------------------
// Mock TaskService
// ---------------------------------------------------------------------------

type mockTaskService struct {
	createFunc        func(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, in service.CreateTaskInput) (*domain.Task, error)
	listByProjectFunc func(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error)
	listAllFunc       func(ctx context.Context, p tenancy.Principal, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error)
	getFunc           func(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*domain.Task, error)
	updateStatusFunc  func(ctx context.Context, p tenancy.Principal, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error)
	updateFunc        func(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	deleteFunc        func(ctx context.Context, p tenancy.Principal, id uuid.UUID) error
}

func (m *mockTaskService) Create(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, in service.CreateTaskInput) (*domain.Task, error) {
	return m.createFunc(ctx, p, projectID, in)
}

func (m *mockTaskService) ListByProject(ctx context.Context, p tenancy.Principal, projectID uuid.UUID, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
	return m.listByProjectFunc(ctx, p, projectID, filter)
}

func (m *mockTaskService) ListAll(ctx context.Context, p tenancy.Principal, filter domain.TaskFilter) (domain.ListResult[*domain.Task], error) {
	return m.listAllFunc(ctx, p, filter)
}

func (m *mockTaskService) Get(ctx context.Context, p tenancy.Principal, id uuid.UUID) (*domain.Task, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockTaskService) UpdateStatus(ctx context.Context, p tenancy.Principal, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	return m.updateStatusFunc(ctx, p, id, status)
}

func (m *mockTaskService) Update(ctx context.Context, p tenancy.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	return m.updateFunc(ctx, p, id, patch)
}

func (m *mockTaskService) Delete(ctx context.Context, p tenancy.Principal, id uuid.UUID) error {
	return m.deleteFunc(ctx, p, id)
}

// ---------------------------------------------------------------------------
// Dashboard, audit and health stubs
// ---------------------------------------------------------------------------

type mockDashboardService struct {
	statsFunc func(ctx context.Context, p tenancy.Principal) (*service.DashboardStats, error)
}

func (m *mockDashboardService) Stats(ctx context.Context, p tenancy.Principal) (*service.DashboardStats, error) {
	return m.statsFunc(ctx, p)
}

type mockAuditService struct {
	recentFunc func(ctx context.Context, p tenancy.Principal) ([]*domain.AuditEntry, error)
}

func (m *mockAuditService) Recent(ctx context.Context, p tenancy.Principal) ([]*domain.AuditEntry, error) {
	return m.recentFunc(ctx, p)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
