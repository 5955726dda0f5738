package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/manager"
)

func TestHistogramSnapshot(t *testing.T) {
	h := NewHistogram()
	if got := h.Snapshot(); got.Count != 0 {
		t.Fatalf("empty histogram count = %d", got.Count)
	}
	for i := 1; i <= 100; i++ {
		h.Observe(time.Duration(i) * time.Millisecond)
	}
	s := h.Snapshot()
	if s.Count != 100 {
		t.Errorf("Count = %d, want 100", s.Count)
	}
	if s.Max != 100*time.Millisecond {
		t.Errorf("Max = %v, want 100ms", s.Max)
	}
	if s.P50 < 50*time.Millisecond || s.P50 > 51*time.Millisecond {
		t.Errorf("P50 = %v, want about 50.5ms", s.P50)
	}
}

func TestVecs(t *testing.T) {
	cv := NewCounterVec()
	cv.WithLabels("a").Inc()
	cv.WithLabels("a").Add(2)
	cv.WithLabels("b").Inc()
	got := cv.Snapshot()
	if got["a"] != 3 || got["b"] != 1 {
		t.Errorf("counter snapshot = %v", got)
	}

	hv := NewHistogramVec()
	if hv.WithLabels("x") != hv.WithLabels("x") {
		t.Error("WithLabels returned different histograms for the same label")
	}
}

func TestInstrumentedCache(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics()
	cache := NewInstrumentedCache(manager.NewMemoryCache(), m)
	input := domain.Combination{0, 1}

	if ok, _ := cache.ContainsResultFor(ctx, input); ok {
		t.Fatal("empty cache contains result")
	}
	if err := cache.AddResultFor(ctx, input, domain.Success()); err != nil {
		t.Fatal(err)
	}
	if ok, _ := cache.ContainsResultFor(ctx, input); !ok {
		t.Fatal("cache lost result")
	}

	lookups := m.CacheLookups().Snapshot()
	if lookups["hit"] != 1 || lookups["miss"] != 1 {
		t.Errorf("lookups = %v, want one hit and one miss", lookups)
	}
	if n := m.CacheDuration().Snapshot()["add"].Count; n != 1 {
		t.Errorf("add observations = %d, want 1", n)
	}
}

func TestReporter(t *testing.T) {
	m := NewMetrics()
	r := NewReporter(m)
	group := &generator.TestInputGroup{ID: "positive", TestInputs: []domain.Combination{{0}, {1}}}

	r.GroupGenerated(group)
	r.TestInputsGenerated(group, []domain.Combination{{1}})
	if got := m.GroupsActive().Get(); got != 1 {
		t.Errorf("active groups = %d, want 1", got)
	}
	r.CharacterizationFinished(group, []domain.Combination{{1}})
	r.GroupFinished(group)

	s := m.Snapshot()
	if s.GroupsActive != 0 {
		t.Errorf("active groups = %d, want 0", s.GroupsActive)
	}
	if s.InputsGenerated["positive"] != 3 {
		t.Errorf("inputs generated = %d, want 3", s.InputsGenerated["positive"])
	}
	if s.FailureInducing["positive"] != 1 {
		t.Errorf("failure inducing = %v, want 1", s.FailureInducing["positive"])
	}
}

func TestServeHTTP(t *testing.T) {
	m := NewMetrics()
	m.ObserveTest(domain.Failure("x"), time.Millisecond)
	m.ObserveTest(domain.Success(), time.Millisecond)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics?format=json", nil))
	var snapshot MetricsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snapshot.TestsExecuted["FAIL"] != 1 || snapshot.TestsExecuted["PASS"] != 1 {
		t.Errorf("tests executed = %v", snapshot.TestsExecuted)
	}

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "Tests Executed by outcome") || !strings.Contains(body, "FAIL: 1") {
		t.Errorf("text output missing execution counts:\n%s", body)
	}
}
