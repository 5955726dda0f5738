package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/endpoint"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/observability"
	"github.com/example/combitest/internal/service"
	"github.com/example/combitest/internal/storage"
	"github.com/example/combitest/internal/storage/sqlite"
)

// testEnv provides a minimal test environment for web tests.
type testEnv struct {
	storage *sqlite.Storage
	service *service.SessionService
	server  *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	m, err := modelfile.Parse([]byte("parameters:\n  - name: a\n    values: [x, y]\n  - name: b\n    values: [x, y]\n"))
	if err != nil {
		t.Fatal(err)
	}
	model, err := m.TestModel()
	if err != nil {
		t.Fatal(err)
	}
	recorder := report.NewRecorder()
	basic, err := manager.NewBasic(model, manager.Configuration{Reporter: recorder})
	if err != nil {
		t.Fatal(err)
	}
	svc, err := service.NewSessionService(service.SessionConfig{
		Model:    m,
		Manager:  basic,
		Recorder: recorder,
		Sessions: store,
	})
	if err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		storage: store,
		service: svc,
		server:  NewServer(":0", endpoint.MakeEndpoints(svc), store, observability.NewMetrics(), nil),
	}
}

func TestAPIRouting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inputs, err := env.service.InitialTests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sessionID := env.service.Report(ctx).ID

	tests := []struct {
		name          string
		path          string
		wantStatus    int
		wantJSONField string
	}{
		{name: "health", path: "/healthz", wantStatus: http.StatusOK},
		{name: "report", path: "/api/report", wantStatus: http.StatusOK, wantJSONField: "pending"},
		{name: "list sessions", path: "/api/sessions", wantStatus: http.StatusOK, wantJSONField: "sessions"},
		{name: "bad limit", path: "/api/sessions?limit=x", wantStatus: http.StatusBadRequest, wantJSONField: "error"},
		{name: "get session", path: "/api/sessions/" + sessionID, wantStatus: http.StatusOK, wantJSONField: "session"},
		{name: "get nonexistent session", path: "/api/sessions/nonexistent", wantStatus: http.StatusNotFound, wantJSONField: "error"},
		{name: "metrics", path: "/metrics?format=json", wantStatus: http.StatusOK, wantJSONField: "tests_executed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			env.server.Handler().ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantJSONField != "" {
				var result map[string]any
				if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
					t.Fatalf("response is not valid JSON: %v; body: %s", err, rr.Body.String())
				}
				if _, ok := result[tt.wantJSONField]; !ok {
					t.Errorf("response missing field %q: %s", tt.wantJSONField, rr.Body.String())
				}
			}
		})
	}

	for _, input := range inputs {
		if _, err := env.service.SubmitResult(ctx, input, domain.Success()); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID, nil)
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	var resp SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Session.State != string(storage.SessionFinished) || resp.Session.FinishedAt == nil {
		t.Errorf("session = %+v, want finished", resp.Session)
	}
	if resp.Session.Executed != len(inputs) {
		t.Errorf("executed = %d, want %d", resp.Session.Executed, len(inputs))
	}
}

func TestStartStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	env.server.addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
