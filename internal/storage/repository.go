// Package storage defines the persistence contracts of combitest.
package storage

import (
	"context"
	"time"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/manager"
)

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	SessionRunning  SessionState = "running"
	SessionFinished SessionState = "finished"
	SessionFailed   SessionState = "failed"
)

// Session is one execution of a model.
type Session struct {
	ID string

	// ModelPath is the file the model was read from.
	ModelPath string

	// Fingerprint identifies the model; results are cached under it.
	Fingerprint string

	Strength  int
	State     SessionState
	Executed  int
	Failed    int
	CreatedAt time.Time

	// FinishedAt is zero while the session runs.
	FinishedAt time.Time
}

// Report is the outcome of fault characterization for a session.
type Report struct {
	SessionID       string
	FailureInducing []domain.Combination
	CreatedAt       time.Time
}

// ListOptions provides filtering options for list operations.
type ListOptions struct {
	// States to filter by (empty = all)
	States []SessionState

	// Pagination
	Limit  int
	Offset int
}

// ResultStore hands out result caches. Each namespace is an independent
// cache; callers use the model fingerprint so results are only reused for
// the same model.
type ResultStore interface {
	Results(namespace string) manager.ResultCache
	Close() error
}

// SessionStore keeps the history of sessions and their reports.
type SessionStore interface {
	// CreateSession stores a new session.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*Session, error)

	// FinishSession records the final counters and state of a session.
	FinishSession(ctx context.Context, id string, state SessionState, executed, failed int, at time.Time) error

	// ListSessions lists sessions, newest first.
	ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error)

	// SaveReport stores the report of a session, replacing an earlier one.
	SaveReport(ctx context.Context, r *Report) error

	// GetReport retrieves the report of a session.
	GetReport(ctx context.Context, sessionID string) (*Report, error)
}
