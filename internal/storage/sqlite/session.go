package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/storage"
)

func (s *Storage) CreateSession(ctx context.Context, session *storage.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, model_path, fingerprint, strength, state, executed, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.ModelPath, session.Fingerprint, session.Strength, string(session.State),
		session.Executed, session.Failed, session.CreatedAt)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, model_path, fingerprint, strength, state, executed, failed, created_at, finished_at
		FROM sessions WHERE id = ?
	`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	return session, err
}

func (s *Storage) FinishSession(ctx context.Context, id string, state storage.SessionState, executed, failed int, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET state = ?, executed = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, string(state), executed, failed, at, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *Storage) ListSessions(ctx context.Context, opts storage.ListOptions) ([]*storage.Session, error) {
	query := `
		SELECT id, model_path, fingerprint, strength, state, executed, failed, created_at, finished_at
		FROM sessions`
	var args []any

	if len(opts.States) > 0 {
		placeholders := make([]string, len(opts.States))
		for i, state := range opts.States {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		query += " WHERE state IN (" + strings.Join(placeholders, ", ") + ")"
	}

	query += " ORDER BY created_at DESC, id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*storage.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Storage) SaveReport(ctx context.Context, r *storage.Report) error {
	combinations := make([][]int, len(r.FailureInducing))
	for i, c := range r.FailureInducing {
		combinations[i] = c
	}
	data, err := json.Marshal(combinations)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (session_id, failure_inducing_json, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			failure_inducing_json = excluded.failure_inducing_json,
			created_at = excluded.created_at
	`, r.SessionID, string(data), r.CreatedAt)
	return err
}

func (s *Storage) GetReport(ctx context.Context, sessionID string) (*storage.Report, error) {
	r := &storage.Report{SessionID: sessionID}
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT failure_inducing_json, created_at FROM reports WHERE session_id = ?
	`, sessionID).Scan(&data, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: report of session %s", domain.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	var combinations [][]int
	if err := json.Unmarshal([]byte(data), &combinations); err != nil {
		return nil, err
	}
	for _, c := range combinations {
		r.FailureInducing = append(r.FailureInducing, domain.Combination(c))
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*storage.Session, error) {
	session := &storage.Session{}
	var (
		modelPath  sql.NullString
		state      string
		finishedAt sql.NullTime
	)
	err := row.Scan(&session.ID, &modelPath, &session.Fingerprint, &session.Strength, &state,
		&session.Executed, &session.Failed, &session.CreatedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	session.ModelPath = modelPath.String
	session.State = storage.SessionState(state)
	if finishedAt.Valid {
		session.FinishedAt = finishedAt.Time
	}
	return session, nil
}
