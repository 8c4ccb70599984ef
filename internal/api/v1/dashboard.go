package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/service"
)

func RegisterDashboardRoutes(api huma.API, dashboard DashboardService, audit AuditService) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-stats",
		Method:      http.MethodGet,
		Path:        "/dashboard/stats",
		Summary:     "Dashboard counters",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, _ *struct{}) (*Response[*service.DashboardStats], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		stats, err := dashboard.Stats(ctx, p)
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return ok(stats), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "Most recent audit entries",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, _ *struct{}) (*Response[[]*domain.AuditEntry], error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := audit.Recent(ctx, p)
		if err != nil {
			return nil, apiError(ctx, err, "")
		}
		return ok(entries), nil
	})
}
