package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/service"
)

type RegisterTenantBody struct {
	TenantName    string `json:"tenantName" doc:"Organization name"`
	Subdomain     string `json:"subdomain" doc:"Unique subdomain slug"`
	AdminEmail    string `json:"adminEmail" doc:"First admin's email"`
	AdminPassword string `json:"adminPassword" doc:"First admin's password"` //nolint:gosec // G117: registration credential DTO
	AdminFullName string `json:"adminFullName" doc:"First admin's full name"`
}

type RegisterTenantInput struct {
	Body RegisterTenantBody
}

type LoginInput struct {
	Body struct {
		Email           string `json:"email" doc:"Account email"`
		Password        string `json:"password" doc:"Password"` //nolint:gosec // G117: login credential DTO
		TenantSubdomain string `json:"tenantSubdomain,omitempty" doc:"Tenant subdomain; omit for the super admin"`
	}
}

type ForgotPasswordInput struct {
	Body struct {
		Email string `json:"email" doc:"Account email"`
	}
}

// RegisterPublicAuthRoutes registers the unauthenticated auth endpoints.
func RegisterPublicAuthRoutes(api huma.API, tenants TenantService, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-tenant",
		Method:        http.MethodPost,
		Path:          "/auth/register-tenant",
		Summary:       "Register a tenant with its first admin",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterTenantInput) (*Response[*service.Registration], error) {
		reg, err := tenants.Register(ctx, registerInput(input.Body))
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return created(reg, "Tenant registered successfully"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*Response[*auth.LoginResult], error) {
		res, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password, input.Body.TenantSubdomain)
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return ok(res), nil
	})

	// Always acknowledges so the endpoint cannot be used to probe for accounts.
	huma.Register(api, huma.Operation{
		OperationID: "forgot-password",
		Method:      http.MethodPost,
		Path:        "/auth/forgot-password",
		Summary:     "Request a password reset link",
		Tags:        []string{"Auth"},
	}, func(_ context.Context, _ *ForgotPasswordInput) (*MessageResponse, error) {
		return message("Reset link sent to your registered email."), nil
	})
}

// RegisterAuthRoutes registers the auth endpoints that need a token.
func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Current user and tenant",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*Response[*auth.Identity], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		id, err := authSvc.Me(ctx, p.UserID)
		if err != nil {
			return nil, apiError(ctx, err, "User not found")
		}
		return ok(id), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Logout",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*MessageResponse, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		if err := authSvc.Logout(ctx, p.UserID, p.TenantID); err != nil {
			return nil, apiError(ctx, err, "")
		}
		return message("Logged out successfully"), nil
	})
}

func registerInput(b RegisterTenantBody) service.RegisterTenantInput {
	return service.RegisterTenantInput{
		TenantName:    b.TenantName,
		Subdomain:     b.Subdomain,
		AdminEmail:    b.AdminEmail,
		AdminPassword: b.AdminPassword,
		AdminFullName: b.AdminFullName,
	}
}
