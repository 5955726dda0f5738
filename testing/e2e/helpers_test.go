package e2e

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/example/combitest/combinatorial/characterization/ben"
	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/executor"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/observability"
	"github.com/example/combitest/internal/storage/sqlite"
)

const modelYAML = `
strength: 2
parameters:
  - name: db
    values: [postgres, mysql, sqlite]
  - name: cache
    values: [enabled, disabled]
  - name: workers
    values: ["1", "4", "16"]
  - name: tls
    values: [tls12, tls13]
constraints:
  forbidden:
    - parameters: [db, workers]
      tuples: [[sqlite, "16"]]
  errors:
    - parameters: [db, tls]
      tuples: [[mysql, tls12]]
characterization:
  seed: 7
`

// TestEnv provides a parsed model and a migrated database in a temp directory.
type TestEnv struct {
	Storage *sqlite.Storage
	Model   *modelfile.Model
	Test    *domain.TestModel

	t *testing.T
}

// NewTestEnv creates a new test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return newTestEnvWithModel(t, modelYAML)
}

func newTestEnvWithModel(t *testing.T, yaml string) *TestEnv {
	t.Helper()

	model, err := modelfile.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("failed to parse model: %v", err)
	}
	tm, err := model.TestModel()
	if err != nil {
		t.Fatalf("failed to convert model: %v", err)
	}

	storage, err := sqlite.New(filepath.Join(t.TempDir(), "combitest.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return &TestEnv{Storage: storage, Model: model, Test: tm, t: t}
}

// Session is one manager over the environment's model.
type Session struct {
	Manager  manager.Manager
	Recorder *report.Recorder
	Metrics  *observability.Metrics
}

// NewSession builds a session whose results are cached in the database.
func (e *TestEnv) NewSession() *Session {
	e.t.Helper()

	cfg, enabled := e.Model.CharacterizationConfig()
	if !enabled {
		e.t.Fatalf("characterization disabled in test model")
	}
	factory, err := ben.NewFactory(cfg)
	if err != nil {
		e.t.Fatalf("failed to create factory: %v", err)
	}

	recorder := report.NewRecorder()
	metrics := observability.NewMetrics()
	basic, err := manager.NewBasic(e.Test, manager.Configuration{
		Generators:       []generator.Generator{generator.Positive{}, generator.Negative{}},
		Characterization: factory,
		Reporter:         report.Multi{recorder, observability.NewReporter(metrics)},
	})
	if err != nil {
		e.t.Fatalf("failed to create manager: %v", err)
	}
	cache := observability.NewInstrumentedCache(e.Storage.Results(e.Test.Fingerprint()), metrics)
	return &Session{
		Manager:  manager.NewCaching(basic, cache),
		Recorder: recorder,
		Metrics:  metrics,
	}
}

// Combination parses an assignment or fails the test.
func (e *TestEnv) Combination(assignment string) domain.Combination {
	e.t.Helper()
	c, err := e.Model.ParseAssignment(assignment)
	if err != nil {
		e.t.Fatalf("failed to parse %q: %v", assignment, err)
	}
	return c
}

// FaultyRunner fails every input containing one of its faults and counts
// executions per input.
type FaultyRunner struct {
	Faults []domain.Combination

	executed atomic.Int64
	mu       sync.Mutex
	seen     map[domain.Key]int
}

func (r *FaultyRunner) Run(_ context.Context, input domain.Combination) (domain.TestResult, error) {
	r.executed.Add(1)
	r.mu.Lock()
	if r.seen == nil {
		r.seen = make(map[domain.Key]int)
	}
	r.seen[input.Key()]++
	r.mu.Unlock()

	for _, f := range r.Faults {
		if input.Contains(f) {
			return domain.Failure("fault " + f.String()), nil
		}
	}
	return domain.Success(), nil
}

var _ executor.Runner = (*FaultyRunner)(nil)

// Executed returns the number of executions.
func (r *FaultyRunner) Executed() int {
	return int(r.executed.Load())
}

// Repeated returns the number of inputs executed more than once.
func (r *FaultyRunner) Repeated() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, count := range r.seen {
		if count > 1 {
			n++
		}
	}
	return n
}

func containsCombination(list []domain.Combination, c domain.Combination) bool {
	for _, other := range list {
		if other.Equal(c) {
			return true
		}
	}
	return false
}
