// Package report receives notifications about the progress of a session.
// Reporters only observe; nothing they do influences generation.
package report

import (
	"log/slog"
	"sync"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
)

// Reporter is notified about session events.
type Reporter interface {
	GroupGenerated(group *generator.TestInputGroup)
	GroupFinished(group *generator.TestInputGroup)
	CharacterizationStarted(group *generator.TestInputGroup, algorithm string)
	CharacterizationFinished(group *generator.TestInputGroup, failureInducing []domain.Combination)
	TestInputsGenerated(group *generator.TestInputGroup, inputs []domain.Combination)
}

// NoOp ignores every event.
type NoOp struct{}

func (NoOp) GroupGenerated(*generator.TestInputGroup) {}
func (NoOp) GroupFinished(*generator.TestInputGroup) {}
func (NoOp) CharacterizationStarted(*generator.TestInputGroup, string) {}
func (NoOp) CharacterizationFinished(*generator.TestInputGroup, []domain.Combination) {}
func (NoOp) TestInputsGenerated(*generator.TestInputGroup, []domain.Combination) {}

// Logger writes every event to a structured logger.
type Logger struct {
	log *slog.Logger
}

// NewLogger returns a reporter logging to log, or to slog.Default if nil.
func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

func (l *Logger) GroupGenerated(group *generator.TestInputGroup) {
	l.log.Info("test input group generated", "group", group.ID, "inputs", len(group.TestInputs))
}

func (l *Logger) GroupFinished(group *generator.TestInputGroup) {
	l.log.Info("test input group finished", "group", group.ID)
}

func (l *Logger) CharacterizationStarted(group *generator.TestInputGroup, algorithm string) {
	l.log.Info("fault characterization started", "group", group.ID, "algorithm", algorithm)
}

func (l *Logger) CharacterizationFinished(group *generator.TestInputGroup, failureInducing []domain.Combination) {
	l.log.Info("fault characterization finished", "group", group.ID, "failure_inducing", len(failureInducing))
	for i, c := range failureInducing {
		l.log.Debug("failure-inducing combination", "group", group.ID, "rank", i+1, "combination", c.String())
	}
}

func (l *Logger) TestInputsGenerated(group *generator.TestInputGroup, inputs []domain.Combination) {
	l.log.Debug("additional test inputs generated", "group", group.ID, "inputs", len(inputs))
}

// GroupSummary is what a Recorder knows about one group.
type GroupSummary struct {
	ID               string
	InitialInputs    int
	AdditionalInputs int
	Characterized    bool
	Finished         bool
	FailureInducing  []domain.Combination
}

// Recorder keeps a summary of every group it hears about. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	order  []string
	groups map[string]*GroupSummary
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{groups: make(map[string]*GroupSummary)}
}

func (r *Recorder) summary(group *generator.TestInputGroup) *GroupSummary {
	s, ok := r.groups[group.ID]
	if !ok {
		s = &GroupSummary{ID: group.ID}
		r.groups[group.ID] = s
		r.order = append(r.order, group.ID)
	}
	return s
}

func (r *Recorder) GroupGenerated(group *generator.TestInputGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary(group).InitialInputs = len(group.TestInputs)
}

func (r *Recorder) GroupFinished(group *generator.TestInputGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary(group).Finished = true
}

func (r *Recorder) CharacterizationStarted(group *generator.TestInputGroup, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary(group).Characterized = true
}

func (r *Recorder) CharacterizationFinished(group *generator.TestInputGroup, failureInducing []domain.Combination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary(group)
	s.FailureInducing = make([]domain.Combination, len(failureInducing))
	for i, c := range failureInducing {
		s.FailureInducing[i] = c.Clone()
	}
}

func (r *Recorder) TestInputsGenerated(group *generator.TestInputGroup, inputs []domain.Combination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary(group).AdditionalInputs += len(inputs)
}

// Groups returns copies of the summaries in the order groups first appeared.
func (r *Recorder) Groups() []GroupSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GroupSummary, 0, len(r.order))
	for _, id := range r.order {
		s := *r.groups[id]
		s.FailureInducing = append([]domain.Combination(nil), s.FailureInducing...)
		out = append(out, s)
	}
	return out
}

// FailureInducingCombinations returns the combinations found in any group,
// per group in rank order, without duplicates.
func (r *Recorder) FailureInducingCombinations() []domain.Combination {
	seen := make(map[domain.Key]bool)
	var out []domain.Combination
	for _, g := range r.Groups() {
		for _, c := range g.FailureInducing {
			if !seen[c.Key()] {
				seen[c.Key()] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Multi forwards every event to all reporters in order.
type Multi []Reporter

func (m Multi) GroupGenerated(group *generator.TestInputGroup) {
	for _, r := range m {
		r.GroupGenerated(group)
	}
}

func (m Multi) GroupFinished(group *generator.TestInputGroup) {
	for _, r := range m {
		r.GroupFinished(group)
	}
}

func (m Multi) CharacterizationStarted(group *generator.TestInputGroup, algorithm string) {
	for _, r := range m {
		r.CharacterizationStarted(group, algorithm)
	}
}

func (m Multi) CharacterizationFinished(group *generator.TestInputGroup, failureInducing []domain.Combination) {
	for _, r := range m {
		r.CharacterizationFinished(group, failureInducing)
	}
}

func (m Multi) TestInputsGenerated(group *generator.TestInputGroup, inputs []domain.Combination) {
	for _, r := range m {
		r.TestInputsGenerated(group, inputs)
	}
}
