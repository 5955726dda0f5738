package endpoint

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/service"
)

func newEndpoints(t *testing.T) Endpoints {
	t.Helper()
	m, err := modelfile.Parse([]byte("parameters:\n  - name: os\n    values: [linux, mac]\n  - name: arch\n    values: [amd64, arm64]\n"))
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
	svc, err := service.NewSessionService(service.SessionConfig{Model: m, Manager: basic, Recorder: recorder})
	if err != nil {
		t.Fatal(err)
	}
	return MakeEndpoints(svc)
}

func TestEndpoints(t *testing.T) {
	ctx := context.Background()
	e := newEndpoints(t)

	resp, err := e.InitialTests(ctx, nil)
	if err != nil {
		t.Fatalf("InitialTests failed: %v", err)
	}
	initial := resp.(*InitialTestsResponse)
	if len(initial.Inputs) != 4 {
		t.Fatalf("got %d inputs, want 4", len(initial.Inputs))
	}
	if initial.SessionID == "" {
		t.Error("missing session ID")
	}

	for i, input := range initial.Inputs {
		resp, err := e.SubmitResult(ctx, &SubmitResultRequest{Input: input, Outcome: "pass"})
		if err != nil {
			t.Fatalf("SubmitResult(%v) failed: %v", input, err)
		}
		submitted := resp.(*SubmitResultResponse)
		if len(submitted.Next) != 0 {
			t.Errorf("unexpected follow-up inputs %v", submitted.Next)
		}
		if want := i == len(initial.Inputs)-1; submitted.Finished != want {
			t.Errorf("Finished = %v after %d results", submitted.Finished, i+1)
		}
	}

	resp, err = e.Report(ctx, nil)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	r := resp.(*ReportResponse)
	if !r.Finished || r.Executed != 4 || r.Failed != 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestSubmitResultValidation(t *testing.T) {
	ctx := context.Background()
	e := newEndpoints(t)
	if _, err := e.InitialTests(ctx, nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  *SubmitResultRequest
	}{
		{"partial input", &SubmitResultRequest{Input: Assignment{"os": "linux"}, Outcome: "PASS"}},
		{"unknown parameter", &SubmitResultRequest{Input: Assignment{"os": "linux", "cpu": "x"}, Outcome: "PASS"}},
		{"unknown value", &SubmitResultRequest{Input: Assignment{"os": "bsd", "arch": "amd64"}, Outcome: "PASS"}},
		{"unknown outcome", &SubmitResultRequest{Input: Assignment{"os": "linux", "arch": "amd64"}, Outcome: "flaky"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.SubmitResult(ctx, tt.req)
			if !errors.Is(err, domain.ErrInvalidCombination) {
				t.Fatalf("got %v, want ErrInvalidCombination", err)
			}
			if code := status.Code(MapErrorToStatus(err)); code != codes.InvalidArgument {
				t.Errorf("code = %v, want InvalidArgument", code)
			}
		})
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{nil, codes.OK},
		{fmt.Errorf("wrap: %w", domain.ErrNotFound), codes.NotFound},
		{domain.ErrInvalidState, codes.FailedPrecondition},
		{domain.ErrInvalidModel, codes.InvalidArgument},
		{context.Canceled, codes.Canceled},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{errors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(MapErrorToStatus(tt.err)); got != tt.want {
			t.Errorf("MapErrorToStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
