package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/server"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/store/memory"
)

const testSecret = "integration-secret-at-least-32-chars!!"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		StoreDriver: config.StoreMemory,
		JWT:         config.JWTConfig{Secret: testSecret},
		Server:      config.ServerConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second, CORSOrigins: []string{"http://localhost:3000"}},
		RateLimit:   config.RateLimitConfig{APIRPS: 1000, APIBurst: 1000, AuthRPS: 1000, AuthBurst: 1000},
	}

	store := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	broker := events.NewLocal()
	srv := server.New(ctx, cfg, server.Deps{
		Store:    store,
		Auth:     auth.NewService(store, testSecret, m),
		Services: service.New(service.Deps{Store: store, Events: events.NewPublisher(broker, m), Metrics: m}),
		Broker:   broker,
		Metrics:  m,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestServer_TenantLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	status, env := call(t, ts, http.MethodPost, "/api/auth/register-tenant", "", map[string]string{
		"tenantName":    "Acme",
		"subdomain":     "acme",
		"adminEmail":    "owner@acme.com",
		"adminPassword": "s3cretpass",
		"adminFullName": "Acme Owner",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, "Tenant registered successfully", env.Message)

	status, env = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@acme.com", "password": "s3cretpass", "tenantSubdomain": "acme",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	status, env = call(t, ts, http.MethodPost, "/api/projects", login.Token, map[string]string{"name": "Launch"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var project struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &project))
	assert.Equal(t, "active", project.Status)

	status, env = call(t, ts, http.MethodPost, "/api/projects/"+project.ID+"/tasks", login.Token, map[string]string{"title": "Ship it"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var task struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "todo", task.Status)

	status, env = call(t, ts, http.MethodPatch, "/api/tasks/"+task.ID+"/status", login.Token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "completed", task.Status)

	status, env = call(t, ts, http.MethodGet, "/api/dashboard/stats", login.Token, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats["completedTasks"])
	assert.Equal(t, 0, stats["pendingTasks"])
}

func TestServer_RejectsMissingToken(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	status, env := call(t, ts, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "connected", health["database"])

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `taskhub_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}
