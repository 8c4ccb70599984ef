package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/api/ws"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

type stubFinder struct {
	project *domain.Project
}

func (s stubFinder) Get(_ context.Context, p tenancy.Principal, id uuid.UUID) (*service.ProjectDetails, error) {
	if s.project == nil || id != s.project.ID {
		return nil, domain.ErrNotFound
	}
	if !p.IsSuperAdmin() && (p.TenantID == nil || *p.TenantID != s.project.TenantID) {
		return nil, domain.ErrNotFound
	}
	return &service.ProjectDetails{Project: s.project}, nil
}

func newBoardServer(t *testing.T, broker events.Broker, project *domain.Project, principal *tenancy.Principal) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(middleware.WithPrincipal(req.Context(), *principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/ws/board/{projectId}", ws.NewHub(broker, stubFinder{project: project}).ServeBoard)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestServeBoard_ForwardsEvents(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	project := &domain.Project{ID: uuid.New(), TenantID: tenantID, Name: "Apollo"}
	broker := events.NewLocal()
	srv := newBoardServer(t, broker, project, &tenancy.Principal{UserID: uuid.New(), TenantID: &tenantID, Role: domain.RoleUser})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/board/" + project.ID.String()
	conn, resp, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.CloseNow()

	received := make(chan string, 1)
	go func() {
		_, data, readErr := conn.Read(ctx)
		if readErr == nil {
			received <- string(data)
		}
	}()

	// The server subscribes after the upgrade completes; keep publishing
	// until the first message lands.
	payload := `{"type":"task_created"}`
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case got := <-received:
			assert.JSONEq(t, payload, got)
			return
		case <-ticker.C:
			require.NoError(t, broker.Publish(ctx, events.BoardChannel(tenantID, project.ID), []byte(payload)))
		case <-ctx.Done():
			t.Fatal("no board event received")
		}
	}
}

func TestServeBoard_Rejections(t *testing.T) {
	t.Parallel()

	tenantID, otherTenant := uuid.New(), uuid.New()
	project := &domain.Project{ID: uuid.New(), TenantID: tenantID}

	tests := []struct {
		name      string
		principal *tenancy.Principal
		path      string
		status    int
	}{
		{"no principal", nil, project.ID.String(), http.StatusUnauthorized},
		{"bad id", &tenancy.Principal{UserID: uuid.New(), TenantID: &tenantID, Role: domain.RoleUser}, "nope", http.StatusBadRequest},
		{"other tenant", &tenancy.Principal{UserID: uuid.New(), TenantID: &otherTenant, Role: domain.RoleTenantAdmin}, project.ID.String(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newBoardServer(t, events.NewLocal(), project, tt.principal)
			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/ws/board/"+tt.path, http.NoBody)
			require.NoError(t, err)

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
