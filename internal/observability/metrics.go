// Package observability collects in-process metrics of a combitest session
// and exposes them over HTTP.
package observability

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds all metrics of a combitest process.
type Metrics struct {
	// Generation metrics
	generationDuration *Histogram
	inputsGenerated    *CounterVec
	groupsActive       *AtomicGauge
	failureInducing    *GaugeVec

	// Execution metrics
	testDuration  *HistogramVec
	testsExecuted *CounterVec

	// Cache metrics
	cacheLookups  *CounterVec
	cacheDuration *HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics() *Metrics {
	return &Metrics{
		generationDuration: NewHistogram(),
		inputsGenerated:    NewCounterVec(),
		groupsActive:       NewAtomicGauge(),
		failureInducing:    NewGaugeVec(),

		testDuration:  NewHistogramVec(),
		testsExecuted: NewCounterVec(),

		cacheLookups:  NewCounterVec(),
		cacheDuration: NewHistogramVec(),
	}
}

// GenerationDuration is the time spent producing test inputs, per manager call.
func (m *Metrics) GenerationDuration() *Histogram { return m.generationDuration }

// InputsGenerated counts handed out test inputs by group.
func (m *Metrics) InputsGenerated() *CounterVec { return m.inputsGenerated }

// GroupsActive is the number of groups that are not finished.
func (m *Metrics) GroupsActive() *AtomicGauge { return m.groupsActive }

// FailureInducing is the number of failure-inducing combinations by group.
func (m *Metrics) FailureInducing() *GaugeVec { return m.failureInducing }

// TestDuration is the execution time of test inputs by outcome.
func (m *Metrics) TestDuration() *HistogramVec { return m.testDuration }

// TestsExecuted counts executed test inputs by outcome.
func (m *Metrics) TestsExecuted() *CounterVec { return m.testsExecuted }

// CacheLookups counts result cache lookups by "hit" or "miss".
func (m *Metrics) CacheLookups() *CounterVec { return m.cacheLookups }

// CacheDuration is the latency of result cache operations by operation.
func (m *Metrics) CacheDuration() *HistogramVec { return m.cacheDuration }

// Snapshot returns a snapshot of all metrics for reporting.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		GenerationDuration: m.generationDuration.Snapshot(),
		InputsGenerated:    m.inputsGenerated.Snapshot(),
		GroupsActive:       m.groupsActive.Get(),
		FailureInducing:    m.failureInducing.Snapshot(),

		TestDuration:  m.testDuration.Snapshot(),
		TestsExecuted: m.testsExecuted.Snapshot(),

		CacheLookups:  m.cacheLookups.Snapshot(),
		CacheDuration: m.cacheDuration.Snapshot(),
	}
}

// MetricsSnapshot holds a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	GenerationDuration HistogramSnapshot  `json:"generation_duration"`
	InputsGenerated    map[string]int64   `json:"inputs_generated"`
	GroupsActive       int64              `json:"groups_active"`
	FailureInducing    map[string]float64 `json:"failure_inducing"`

	TestDuration  map[string]HistogramSnapshot `json:"test_duration"`
	TestsExecuted map[string]int64             `json:"tests_executed"`

	CacheLookups  map[string]int64             `json:"cache_lookups"`
	CacheDuration map[string]HistogramSnapshot `json:"cache_duration"`
}

// Histogram tracks the distribution of duration measurements.
// Thread-safe for concurrent observations.
type Histogram struct {
	mu     sync.RWMutex
	values []float64 // microseconds
}

// NewHistogram creates a new histogram.
func NewHistogram() *Histogram {
	return &Histogram{values: make([]float64, 0, 256)}
}

// Observe records a duration measurement.
func (h *Histogram) Observe(d time.Duration) {
	micros := float64(d.Microseconds())
	h.mu.Lock()
	h.values = append(h.values, micros)
	h.mu.Unlock()
}

// Since records the time elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.Observe(time.Since(start))
}

// Snapshot returns a point-in-time snapshot with percentiles calculated.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.RLock()
	sorted := make([]float64, len(h.values))
	copy(sorted, h.values)
	h.mu.RUnlock()

	if len(sorted) == 0 {
		return HistogramSnapshot{}
	}
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	micros := func(v float64) time.Duration { return time.Duration(v) * time.Microsecond }

	return HistogramSnapshot{
		Count: len(sorted),
		Mean:  micros(sum / float64(len(sorted))),
		P50:   micros(percentile(sorted, 0.50)),
		P95:   micros(percentile(sorted, 0.95)),
		P99:   micros(percentile(sorted, 0.99)),
		Max:   micros(sorted[len(sorted)-1]),
	}
}

// HistogramSnapshot holds calculated statistics for a histogram.
type HistogramSnapshot struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// percentile interpolates the p-th percentile of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Vec is a collection of metrics of one kind, keyed by a label string.
type Vec[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
	newT  func() *T
}

func newVec[T any](newT func() *T) *Vec[T] {
	return &Vec[T]{items: make(map[string]*T), newT: newT}
}

// WithLabels returns the metric for labels, creating it on first use.
func (v *Vec[T]) WithLabels(labels string) *T {
	v.mu.RLock()
	item, ok := v.items[labels]
	v.mu.RUnlock()
	if ok {
		return item
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if item, ok := v.items[labels]; ok {
		return item
	}
	item = v.newT()
	v.items[labels] = item
	return item
}

func snapshotVec[T, S any](v *Vec[T], snap func(*T) S) map[string]S {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]S, len(v.items))
	for label, item := range v.items {
		out[label] = snap(item)
	}
	return out
}

// HistogramVec is a collection of histograms with labels.
type HistogramVec struct{ *Vec[Histogram] }

// NewHistogramVec creates a new histogram vector.
func NewHistogramVec() *HistogramVec {
	return &HistogramVec{newVec(NewHistogram)}
}

// Snapshot returns snapshots of all histograms.
func (hv *HistogramVec) Snapshot() map[string]HistogramSnapshot {
	return snapshotVec(hv.Vec, (*Histogram).Snapshot)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds delta to the counter.
func (c *Counter) Add(delta int64) { c.value.Add(delta) }

// Get returns the current value.
func (c *Counter) Get() int64 { return c.value.Load() }

// CounterVec is a collection of counters with labels.
type CounterVec struct{ *Vec[Counter] }

// NewCounterVec creates a new counter vector.
func NewCounterVec() *CounterVec {
	return &CounterVec{newVec(NewCounter)}
}

// Snapshot returns the current values of all counters.
func (cv *CounterVec) Snapshot() map[string]int64 {
	return snapshotVec(cv.Vec, (*Counter).Get)
}

// AtomicGauge is a gauge that can be set and read atomically.
type AtomicGauge struct {
	value atomic.Int64
}

// NewAtomicGauge creates a new atomic gauge.
func NewAtomicGauge() *AtomicGauge {
	return &AtomicGauge{}
}

func (g *AtomicGauge) Set(val int64) { g.value.Store(val) }
func (g *AtomicGauge) Inc()          { g.value.Add(1) }
func (g *AtomicGauge) Dec()          { g.value.Add(-1) }
func (g *AtomicGauge) Get() int64    { return g.value.Load() }

// GaugeVec is a collection of gauges with labels.
type GaugeVec struct {
	mu     sync.RWMutex
	gauges map[string]float64
}

// NewGaugeVec creates a new gauge vector.
func NewGaugeVec() *GaugeVec {
	return &GaugeVec{gauges: make(map[string]float64)}
}

// Set sets the gauge for labels to value.
func (gv *GaugeVec) Set(labels string, value float64) {
	gv.mu.Lock()
	gv.gauges[labels] = value
	gv.mu.Unlock()
}

// Snapshot returns the current values of all gauges.
func (gv *GaugeVec) Snapshot() map[string]float64 {
	gv.mu.RLock()
	defer gv.mu.RUnlock()

	snapshot := make(map[string]float64, len(gv.gauges))
	for label, value := range gv.gauges {
		snapshot[label] = value
	}
	return snapshot
}

// ServeHTTP implements http.Handler for metrics exposition. The default is
// a text summary; "?format=json" or an "Accept: application/json" header
// selects JSON.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := m.Snapshot()

	if r.URL.Query().Get("format") == "json" || r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(snapshot)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "# combitest metrics\n\n")

	fmt.Fprintf(w, "## Generation\n\n")
	writeHistogramSummary(w, "Generation Duration", snapshot.GenerationDuration)
	fmt.Fprintf(w, "Active Groups: %d\n", snapshot.GroupsActive)
	writeCounts(w, "Inputs Generated by group", snapshot.InputsGenerated)
	if len(snapshot.FailureInducing) > 0 {
		fmt.Fprintf(w, "Failure-Inducing Combinations by group:\n")
		for _, label := range sortedKeys(snapshot.FailureInducing) {
			fmt.Fprintf(w, "  %s: %.0f\n", label, snapshot.FailureInducing[label])
		}
	}

	fmt.Fprintf(w, "\n## Execution\n\n")
	writeCounts(w, "Tests Executed by outcome", snapshot.TestsExecuted)
	writeHistograms(w, "Test Duration by outcome", snapshot.TestDuration)

	fmt.Fprintf(w, "\n## Result Cache\n\n")
	writeCounts(w, "Lookups", snapshot.CacheLookups)
	writeHistograms(w, "Duration by operation", snapshot.CacheDuration)
}

func writeHistogramSummary(w http.ResponseWriter, name string, h HistogramSnapshot) {
	if h.Count == 0 {
		fmt.Fprintf(w, "%s: no data\n", name)
		return
	}
	fmt.Fprintf(w, "%s (n=%d):\n", name, h.Count)
	fmt.Fprintf(w, "  Mean: %v, P50: %v, P95: %v, P99: %v, Max: %v\n",
		h.Mean, h.P50, h.P95, h.P99, h.Max)
}

func writeHistograms(w http.ResponseWriter, name string, hs map[string]HistogramSnapshot) {
	if len(hs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", name)
	for _, label := range sortedKeys(hs) {
		h := hs[label]
		fmt.Fprintf(w, "  %s: Count: %d, Mean: %v, P50: %v, P95: %v, P99: %v, Max: %v\n",
			label, h.Count, h.Mean, h.P50, h.P95, h.P99, h.Max)
	}
}

func writeCounts(w http.ResponseWriter, name string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", name)
	for _, label := range sortedKeys(counts) {
		fmt.Fprintf(w, "  %s: %d\n", label, counts[label])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
