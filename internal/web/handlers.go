package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/endpoint"
	"github.com/example/combitest/internal/storage"
)

// Handlers contains HTTP handlers for the web API
type Handlers struct {
	endpoints endpoint.Endpoints
	sessions  storage.SessionStore
}

// NewHandlers creates new API handlers. sessions may be nil.
func NewHandlers(endpoints endpoint.Endpoints, sessions storage.SessionStore) *Handlers {
	return &Handlers{endpoints: endpoints, sessions: sessions}
}

// GetReport handles GET /api/report
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	resp, err := h.endpoints.Report(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	report := resp.(*endpoint.ReportResponse)
	writeJSON(w, http.StatusOK, ReportResponse{
		SessionID:       report.SessionID,
		Started:         report.Started,
		Finished:        report.Finished,
		Executed:        report.Executed,
		Failed:          report.Failed,
		Pending:         report.Pending,
		FailureInducing: report.FailureInducing,
	})
}

// ListSessions handles GET /api/sessions?state=finished&limit=10
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, errNoStore)
		return
	}

	opts := storage.ListOptions{}
	if state := r.URL.Query().Get("state"); state != "" {
		opts.States = []storage.SessionState{storage.SessionState(state)}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		opts.Limit = n
	}

	sessions, err := h.sessions.ListSessions(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	response := ListSessionsResponse{Sessions: make([]SessionSummary, 0, len(sessions))}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, summarize(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// GetSession handles GET /api/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, errNoStore)
		return
	}

	id := r.PathValue("id")
	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response := SessionResponse{Session: summarize(session), FailureInducing: [][]int{}}
	report, err := h.sessions.GetReport(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		writeError(w, err)
		return
	default:
		for _, c := range report.FailureInducing {
			response.FailureInducing = append(response.FailureInducing, c)
		}
	}
	writeJSON(w, http.StatusOK, response)
}

var errNoStore = errors.New("no session store configured")

func summarize(s *storage.Session) SessionSummary {
	summary := SessionSummary{
		ID:          s.ID,
		ModelPath:   s.ModelPath,
		Fingerprint: s.Fingerprint,
		Strength:    s.Strength,
		State:       string(s.State),
		Executed:    s.Executed,
		Failed:      s.Failed,
		CreatedAt:   s.CreatedAt,
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		summary.FinishedAt = &finished
	}
	return summary
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errNoStore):
		code = http.StatusNotImplemented
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
