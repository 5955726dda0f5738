package web

import (
	"time"

	"github.com/example/combitest/internal/endpoint"
)

// ReportResponse is the response for GET /api/report
type ReportResponse struct {
	SessionID       string                `json:"sessionId"`
	Started         bool                  `json:"started"`
	Finished        bool                  `json:"finished"`
	Executed        int                   `json:"executed"`
	Failed          int                   `json:"failed"`
	Pending         int                   `json:"pending"`
	FailureInducing []endpoint.Assignment `json:"failureInducing"`
}

// ListSessionsResponse is the response for GET /api/sessions
type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionSummary is a stored session
type SessionSummary struct {
	ID          string     `json:"id"`
	ModelPath   string     `json:"modelPath,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	Strength    int        `json:"strength"`
	State       string     `json:"state"`
	Executed    int        `json:"executed"`
	Failed      int        `json:"failed"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// SessionResponse is the response for GET /api/sessions/{id}. The
// combinations are value indices with -1 for unset parameters, since a
// stored session may belong to another model.
type SessionResponse struct {
	Session         SessionSummary `json:"session"`
	FailureInducing [][]int        `json:"failureInducing"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}
