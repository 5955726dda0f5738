package observability

import (
	"context"
	"time"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/combinatorial/report"
)

// InstrumentedCache records lookups and latencies of a result cache.
type InstrumentedCache struct {
	cache   manager.ResultCache
	metrics *Metrics
}

var _ manager.ResultCache = (*InstrumentedCache)(nil)

// NewInstrumentedCache wraps cache.
func NewInstrumentedCache(cache manager.ResultCache, metrics *Metrics) *InstrumentedCache {
	return &InstrumentedCache{cache: cache, metrics: metrics}
}

func (c *InstrumentedCache) ContainsResultFor(ctx context.Context, input domain.Combination) (bool, error) {
	defer c.metrics.cacheDuration.WithLabels("contains").Since(time.Now())
	ok, err := c.cache.ContainsResultFor(ctx, input)
	if err == nil {
		if ok {
			c.metrics.cacheLookups.WithLabels("hit").Inc()
		} else {
			c.metrics.cacheLookups.WithLabels("miss").Inc()
		}
	}
	return ok, err
}

func (c *InstrumentedCache) ResultFor(ctx context.Context, input domain.Combination) (domain.TestResult, error) {
	defer c.metrics.cacheDuration.WithLabels("get").Since(time.Now())
	return c.cache.ResultFor(ctx, input)
}

func (c *InstrumentedCache) AddResultFor(ctx context.Context, input domain.Combination, result domain.TestResult) error {
	defer c.metrics.cacheDuration.WithLabels("add").Since(time.Now())
	return c.cache.AddResultFor(ctx, input, result)
}

// InstrumentedManager times every call of a manager.
type InstrumentedManager struct {
	manager manager.Manager
	metrics *Metrics
}

var _ manager.Manager = (*InstrumentedManager)(nil)

// NewInstrumentedManager wraps m.
func NewInstrumentedManager(m manager.Manager, metrics *Metrics) *InstrumentedManager {
	return &InstrumentedManager{manager: m, metrics: metrics}
}

func (m *InstrumentedManager) GenerateInitialTests(ctx context.Context) ([]domain.Combination, error) {
	defer m.metrics.generationDuration.Since(time.Now())
	return m.manager.GenerateInitialTests(ctx)
}

func (m *InstrumentedManager) GenerateAdditionalTestInputsWithResult(ctx context.Context, input domain.Combination, result domain.TestResult) ([]domain.Combination, error) {
	defer m.metrics.generationDuration.Since(time.Now())
	return m.manager.GenerateAdditionalTestInputsWithResult(ctx, input, result)
}

// Reporter turns session events into metrics.
type Reporter struct {
	metrics *Metrics
}

var _ report.Reporter = (*Reporter)(nil)

// NewReporter returns a reporter updating metrics.
func NewReporter(metrics *Metrics) *Reporter {
	return &Reporter{metrics: metrics}
}

func (r *Reporter) GroupGenerated(group *generator.TestInputGroup) {
	r.metrics.groupsActive.Inc()
	r.metrics.inputsGenerated.WithLabels(group.ID).Add(int64(len(group.TestInputs)))
}

func (r *Reporter) GroupFinished(*generator.TestInputGroup) {
	r.metrics.groupsActive.Dec()
}

func (r *Reporter) CharacterizationStarted(*generator.TestInputGroup, string) {}

func (r *Reporter) CharacterizationFinished(group *generator.TestInputGroup, failureInducing []domain.Combination) {
	r.metrics.failureInducing.Set(group.ID, float64(len(failureInducing)))
}

func (r *Reporter) TestInputsGenerated(group *generator.TestInputGroup, inputs []domain.Combination) {
	r.metrics.inputsGenerated.WithLabels(group.ID).Add(int64(len(inputs)))
}

// ObserveTest records one executed test input.
func (m *Metrics) ObserveTest(result domain.TestResult, d time.Duration) {
	outcome := result.Outcome.String()
	m.testsExecuted.WithLabels(outcome).Inc()
	m.testDuration.WithLabels(outcome).Observe(d)
}
