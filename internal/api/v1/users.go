package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

type UserQuery struct {
	PageParams
	Role     string `query:"role" doc:"Filter by role"`
	Search   string `query:"search" doc:"Match full name or email"`
	IsActive string `query:"isActive" doc:"true or false"`
}

type CreateUserBody struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: user creation DTO
	FullName string `json:"fullName"`
	Role     string `json:"role,omitempty" doc:"user or tenant_admin"`
}

type ListUsersInput struct {
	UserQuery
}

type CreateUserInput struct {
	Body CreateUserBody
}

type UserIDInput struct {
	UserID uuid.UUID `path:"userId" doc:"User ID"`
}

type UpdateUserInput struct {
	UserID uuid.UUID `path:"userId" doc:"User ID"`
	Body   struct {
		FullName *string `json:"fullName,omitempty"`
		Role     *string `json:"role,omitempty"`
		IsActive *bool   `json:"isActive,omitempty"`
	}
}

func RegisterUserRoutes(api huma.API, users UserService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users of the caller's tenant",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *ListUsersInput) (*Response[domain.ListResult[*domain.User]], error) {
		return listUsers(ctx, users, nil, input.UserQuery)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create a user in the caller's tenant",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateUserInput) (*Response[*domain.User], error) {
		return createUser(ctx, users, nil, input.Body)
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{userId}",
		Summary:     "Get a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*Response[*domain.User], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		u, err := users.Get(ctx, p, input.UserID)
		if err != nil {
			return nil, apiError(ctx, err, "User not found")
		}
		return ok(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/users/{userId}",
		Summary:     "Update a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserInput) (*Response[*domain.User], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		patch := domain.UserPatch{FullName: input.Body.FullName, IsActive: input.Body.IsActive}
		if input.Body.Role != nil {
			r := domain.Role(*input.Body.Role)
			patch.Role = &r
		}
		u, err := users.Update(ctx, p, input.UserID, patch)
		if err != nil {
			return nil, apiError(ctx, err, "User not found")
		}
		return updated(u, "User updated successfully"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/users/{userId}",
		Summary:     "Delete a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*MessageResponse, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := users.Delete(ctx, p, input.UserID); err != nil {
			return nil, apiError(ctx, err, "User not found")
		}
		return message("User deleted successfully"), nil
	})
}

func listUsers(ctx context.Context, users UserService, tenantID *uuid.UUID, q UserQuery) (*Response[domain.ListResult[*domain.User]], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	active, err := parseOptionalBool("isActive", q.IsActive)
	if err != nil {
		return nil, err
	}
	res, err := users.List(ctx, p, tenantID, domain.UserFilter{
		Role:     domain.Role(q.Role),
		Search:   q.Search,
		IsActive: active,
		Page:     q.page(),
	})
	if err != nil {
		return nil, apiError(ctx, err, "Tenant not found")
	}
	return ok(res), nil
}

func createUser(ctx context.Context, users UserService, tenantID *uuid.UUID, b CreateUserBody) (*Response[*domain.User], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	u, err := users.Create(ctx, p, tenantID, service.CreateUserInput{
		Email:    b.Email,
		Password: b.Password,
		FullName: b.FullName,
		Role:     domain.Role(b.Role),
	})
	if err != nil {
		return nil, apiError(ctx, err, "Tenant not found")
	}
	return created(u, "User created successfully"), nil
}
