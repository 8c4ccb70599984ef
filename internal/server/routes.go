package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/api/ws"
)

func registerPublicRoutes(api huma.API, d Deps) {
	v1.RegisterPublicAuthRoutes(api, d.Services.Tenants, d.Auth)
}

func registerAPIRoutes(api huma.API, d Deps) {
	v1.RegisterAuthRoutes(api, d.Auth)
	v1.RegisterTenantRoutes(api, d.Services.Tenants, d.Services.Users)
	v1.RegisterUserRoutes(api, d.Services.Users)
	v1.RegisterProjectRoutes(api, d.Services.Projects)
	v1.RegisterTaskRoutes(api, d.Services.Tasks)
	v1.RegisterDashboardRoutes(api, d.Services.Dashboard, d.Services.Audit)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/board/{projectId}", hub.ServeBoard)
}
