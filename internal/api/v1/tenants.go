package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

// PageParams are the pagination query parameters shared by list endpoints.
// Out-of-range values are clamped by the services.
type PageParams struct {
	Page  int `query:"page" doc:"Page number, 1-based"`
	Limit int `query:"limit" doc:"Page size"`
}

func (p PageParams) page() domain.Page {
	return domain.Page{Page: p.Page, Limit: p.Limit}
}

type ListTenantsInput struct {
	PageParams
	Status           string `query:"status" doc:"Filter by status"`
	SubscriptionPlan string `query:"subscriptionPlan" doc:"Filter by plan"`
}

type CreateTenantInput struct {
	Body struct {
		RegisterTenantBody
		SubscriptionPlan string `json:"subscriptionPlan,omitempty" doc:"free, pro or enterprise"`
	}
}

type GetTenantInput struct {
	TenantID uuid.UUID `path:"tenantId" doc:"Tenant ID"`
}

type UpdateTenantInput struct {
	TenantID uuid.UUID `path:"tenantId" doc:"Tenant ID"`
	Body     struct {
		Name             *string `json:"name,omitempty"`
		Status           *string `json:"status,omitempty" doc:"active, trial or suspended"`
		SubscriptionPlan *string `json:"subscriptionPlan,omitempty" doc:"free, pro or enterprise"`
		MaxUsers         *int    `json:"maxUsers,omitempty"`
		MaxProjects      *int    `json:"maxProjects,omitempty"`
	}
}

type ListTenantUsersInput struct {
	TenantID uuid.UUID `path:"tenantId" doc:"Tenant ID"`
	UserQuery
}

type CreateTenantUserInput struct {
	TenantID uuid.UUID `path:"tenantId" doc:"Tenant ID"`
	Body     CreateUserBody
}

func RegisterTenantRoutes(api huma.API, tenants TenantService, users UserService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*Response[domain.ListResult[*domain.Tenant]], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		res, err := tenants.List(ctx, p, domain.TenantFilter{
			Status:           domain.TenantStatus(input.Status),
			SubscriptionPlan: domain.SubscriptionPlan(input.SubscriptionPlan),
			Page:             input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return ok(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-tenant",
		Method:        http.MethodPost,
		Path:          "/tenants",
		Summary:       "Create a tenant with its first admin",
		Tags:          []string{"Tenants"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTenantInput) (*Response[*service.Registration], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		in := registerInput(input.Body.RegisterTenantBody)
		in.Plan = domain.SubscriptionPlan(input.Body.SubscriptionPlan)
		reg, err := tenants.Create(ctx, p, in)
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return created(reg, "Tenant created successfully"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantId}",
		Summary:     "Get a tenant with usage stats",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*Response[*service.TenantDetails], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		t, err := tenants.Get(ctx, p, input.TenantID)
		if err != nil {
			return nil, apiError(ctx, err, "Tenant not found")
		}
		return ok(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPut,
		Path:        "/tenants/{tenantId}",
		Summary:     "Update a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*Response[*domain.Tenant], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		b := input.Body
		patch := domain.TenantPatch{
			Name:        b.Name,
			MaxUsers:    b.MaxUsers,
			MaxProjects: b.MaxProjects,
		}
		if b.Status != nil {
			s := domain.TenantStatus(*b.Status)
			patch.Status = &s
		}
		if b.SubscriptionPlan != nil {
			plan := domain.SubscriptionPlan(*b.SubscriptionPlan)
			patch.SubscriptionPlan = &plan
		}
		t, err := tenants.Update(ctx, p, input.TenantID, patch)
		if err != nil {
			return nil, apiError(ctx, err, "Tenant not found")
		}
		return updated(t, "Tenant updated successfully"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenant-users",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantId}/users",
		Summary:     "List the users of a tenant",
		Tags:        []string{"Tenants", "Users"},
	}, func(ctx context.Context, input *ListTenantUsersInput) (*Response[domain.ListResult[*domain.User]], error) {
		return listUsers(ctx, users, &input.TenantID, input.UserQuery)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-tenant-user",
		Method:        http.MethodPost,
		Path:          "/tenants/{tenantId}/users",
		Summary:       "Create a user in a tenant",
		Tags:          []string{"Tenants", "Users"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTenantUserInput) (*Response[*domain.User], error) {
		return createUser(ctx, users, &input.TenantID, input.Body)
	})
}

// parseOptionalBool parses a "true"/"false" query value; "" means unset.
func parseOptionalBool(name, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, huma.Error400BadRequest(name + " must be true or false")
	}
	return &b, nil
}
