package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/storage"
	"github.com/example/combitest/pkg/id"
)

// SessionConfig wires a SessionService.
type SessionConfig struct {
	Model     *modelfile.Model
	ModelPath string

	// Manager must report to Recorder.
	Manager  manager.Manager
	Recorder *report.Recorder

	// Optional.
	Sessions storage.SessionStore
	IDs      id.Generator
	Logger   *slog.Logger
	Now      func() time.Time
}

// SessionService exposes one session to remote executors. Executors fetch
// the initial test inputs, then submit results one at a time and receive the
// test inputs that became necessary. It is safe for concurrent use.
type SessionService struct {
	config SessionConfig

	mu       sync.Mutex
	session  *storage.Session
	pending  []domain.Combination
	finished bool
}

// NewSessionService creates the service. The session starts with the first
// call to InitialTests.
func NewSessionService(config SessionConfig) (*SessionService, error) {
	if config.Model == nil || config.Manager == nil || config.Recorder == nil {
		return nil, fmt.Errorf("%w: session needs a model, a manager and a recorder", domain.ErrInvalidConfig)
	}
	if config.IDs == nil {
		config.IDs = id.New
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	return &SessionService{config: config}, nil
}

// Model returns the model of the session.
func (s *SessionService) Model() *modelfile.Model {
	return s.config.Model
}

// SubmitResponse is the response from SubmitResult.
type SubmitResponse struct {
	Next     []domain.Combination
	Finished bool
}

// SessionReport describes the progress of a session.
type SessionReport struct {
	ID              string
	Started         bool
	Finished        bool
	Executed        int
	Failed          int
	Pending         int
	FailureInducing []domain.Combination
}

// InitialTests starts the session on first use and returns every test input
// still waiting for a result.
func (s *SessionService) InitialTests(ctx context.Context) ([]domain.Combination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		if err := s.start(ctx); err != nil {
			return nil, err
		}
	}
	return cloneAll(s.pending), nil
}

func (s *SessionService) start(ctx context.Context) error {
	model, err := s.config.Model.TestModel()
	if err != nil {
		return err
	}
	inputs, err := s.config.Manager.GenerateInitialTests(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate initial tests: %w", err)
	}

	session := &storage.Session{
		ID:          s.config.IDs(),
		ModelPath:   s.config.ModelPath,
		Fingerprint: model.Fingerprint(),
		Strength:    model.Strength(),
		State:       storage.SessionRunning,
		CreatedAt:   s.config.Now(),
	}
	if s.config.Sessions != nil {
		if err := s.config.Sessions.CreateSession(ctx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}
	s.session = session
	s.pending = nil
	s.addPending(inputs)
	s.config.Logger.Info("session started", "session", session.ID, "inputs", len(s.pending))

	if len(s.pending) == 0 {
		return s.finish(ctx)
	}
	return nil
}

// SubmitResult records the result of a pending test input. Results of
// inputs that are not pending, or that arrive after the session finished,
// are ignored.
func (s *SessionService) SubmitResult(ctx context.Context, input domain.Combination, result domain.TestResult) (*SubmitResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("%w: session not started", domain.ErrInvalidState)
	}
	// Workers may report a result twice; anything not pending is ignored.
	if s.finished || !s.removePending(input) {
		s.config.Logger.Debug("ignoring result of input that is not pending",
			"session", s.session.ID, "input", input.String(), "finished", s.finished)
		return &SubmitResponse{Finished: s.finished}, nil
	}

	s.session.Executed++
	if result.IsFailure() {
		s.session.Failed++
	}
	next, err := s.config.Manager.GenerateAdditionalTestInputsWithResult(ctx, input, result)
	if err != nil {
		return nil, err
	}
	added := s.addPending(next)

	if len(s.pending) == 0 {
		if err := s.finish(ctx); err != nil {
			return nil, err
		}
	}
	return &SubmitResponse{Next: added, Finished: s.finished}, nil
}

// Report returns the progress of the session and the failure-inducing
// combinations found so far.
func (s *SessionService) Report(_ context.Context) *SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &SessionReport{
		Finished:        s.finished,
		Pending:         len(s.pending),
		FailureInducing: s.config.Recorder.FailureInducingCombinations(),
	}
	if s.session != nil {
		r.ID = s.session.ID
		r.Started = true
		r.Executed = s.session.Executed
		r.Failed = s.session.Failed
	}
	return r
}

func (s *SessionService) finish(ctx context.Context) error {
	s.finished = true
	s.session.State = storage.SessionFinished
	s.session.FinishedAt = s.config.Now()
	fics := s.config.Recorder.FailureInducingCombinations()
	s.config.Logger.Info("session finished",
		"session", s.session.ID,
		"executed", s.session.Executed,
		"failed", s.session.Failed,
		"failure_inducing", len(fics))

	if s.config.Sessions == nil {
		return nil
	}
	err := s.config.Sessions.FinishSession(ctx, s.session.ID, s.session.State,
		s.session.Executed, s.session.Failed, s.session.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	err = s.config.Sessions.SaveReport(ctx, &storage.Report{
		SessionID:       s.session.ID,
		FailureInducing: fics,
		CreatedAt:       s.session.FinishedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// addPending appends inputs not pending yet and returns them.
func (s *SessionService) addPending(inputs []domain.Combination) []domain.Combination {
	var added []domain.Combination
	for _, input := range inputs {
		if s.indexOf(input) >= 0 {
			continue
		}
		s.pending = append(s.pending, input.Clone())
		added = append(added, input.Clone())
	}
	return added
}

func (s *SessionService) removePending(input domain.Combination) bool {
	i := s.indexOf(input)
	if i < 0 {
		return false
	}
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	return true
}

func (s *SessionService) indexOf(input domain.Combination) int {
	for i, p := range s.pending {
		if p.Equal(input) {
			return i
		}
	}
	return -1
}

func cloneAll(inputs []domain.Combination) []domain.Combination {
	out := make([]domain.Combination, len(inputs))
	for i, input := range inputs {
		out[i] = input.Clone()
	}
	return out
}
