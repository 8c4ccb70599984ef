package v1_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

func TestListUsers_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantActive *bool
	}{
		{name: "no filter", query: "", wantStatus: http.StatusOK},
		{name: "active only", query: "?isActive=true", wantStatus: http.StatusOK, wantActive: new(bool)},
		{name: "bad bool", query: "?isActive=maybe", wantStatus: http.StatusBadRequest},
	}
	*tests[1].wantActive = true

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := userCtx(uuid.New(), domain.RoleUser)
			_, api := humatest.New(t)
			users := &mockUserService{
				listFunc: func(_ context.Context, _ tenancy.Principal, tid *uuid.UUID, f domain.UserFilter) (domain.ListResult[*domain.User], error) {
					assert.Nil(t, tid, "/users lists the caller's tenant")
					assert.Equal(t, tt.wantActive, f.IsActive)
					return domain.NewListResult[*domain.User](nil, 0, f.Page.Normalize(domain.MaxPageLimit)), nil
				},
			}
			v1.RegisterUserRoutes(api, users)

			resp := api.GetCtx(ctx, "/users"+tt.query)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
		})
	}
}

func TestCreateUser_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "plan_limit",
			err:        domain.NewError(domain.ErrLimitExceeded, "User limit reached (5). Upgrade your plan."),
			wantStatus: http.StatusForbidden,
			wantMsg:    "User limit reached (5). Upgrade your plan.",
		},
		{
			name:       "duplicate_email",
			err:        domain.NewError(domain.ErrConflict, "User with this email already exists"),
			wantStatus: http.StatusConflict,
			wantMsg:    "User with this email already exists",
		},
		{
			name:       "role_user_forbidden",
			err:        domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantMsg:    "Access denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
			_, api := humatest.New(t)
			users := &mockUserService{
				createFunc: func(_ context.Context, _ tenancy.Principal, _ *uuid.UUID, _ service.CreateUserInput) (*domain.User, error) {
					return nil, fmt.Errorf("userService.Create: %w", tt.err)
				},
			}
			v1.RegisterUserRoutes(api, users)

			resp := api.PostCtx(ctx, "/users", map[string]any{
				"email": "x@acme.com", "password": "Passw0rd!", "fullName": "X",
			})

			assert.Equal(t, tt.wantStatus, resp.Code)
			env := decode[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestUpdateUser_BuildsPatch(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
	_, api := humatest.New(t)
	users := &mockUserService{
		updateFunc: func(_ context.Context, _ tenancy.Principal, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
			assert.Equal(t, userID, id)
			assert.Nil(t, patch.FullName)
			require.NotNil(t, patch.Role)
			assert.Equal(t, domain.RoleTenantAdmin, *patch.Role)
			require.NotNil(t, patch.IsActive)
			assert.False(t, *patch.IsActive)
			return &domain.User{ID: id, Role: *patch.Role}, nil
		},
	}
	v1.RegisterUserRoutes(api, users)

	resp := api.PutCtx(ctx, "/users/"+userID.String(), map[string]any{"role": "tenant_admin", "isActive": false})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "User updated successfully", decode[domain.User](t, resp).Message)
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		v1.RegisterUserRoutes(api, &mockUserService{
			deleteFunc: func(_ context.Context, _ tenancy.Principal, _ uuid.UUID) error { return nil },
		})

		resp := api.DeleteCtx(ctx, "/users/"+uuid.NewString())

		require.Equal(t, http.StatusOK, resp.Code)
		env := decode[any](t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, "User deleted successfully", env.Message)
	})

	t.Run("self_delete_forbidden", func(t *testing.T) {
		t.Parallel()

		ctx, p := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		v1.RegisterUserRoutes(api, &mockUserService{
			deleteFunc: func(_ context.Context, _ tenancy.Principal, id uuid.UUID) error {
				assert.Equal(t, p.UserID, id)
				return domain.NewError(domain.ErrForbidden, "You cannot delete your own account")
			},
		})

		resp := api.DeleteCtx(ctx, "/users/"+p.UserID.String())

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "You cannot delete your own account", decode[any](t, resp).Message)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		ctx, _ := userCtx(uuid.New(), domain.RoleTenantAdmin)
		_, api := humatest.New(t)
		v1.RegisterUserRoutes(api, &mockUserService{
			deleteFunc: func(_ context.Context, _ tenancy.Principal, _ uuid.UUID) error { return domain.ErrNotFound },
		})

		resp := api.DeleteCtx(ctx, "/users/"+uuid.NewString())

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "User not found", decode[any](t, resp).Message)
	})
}
