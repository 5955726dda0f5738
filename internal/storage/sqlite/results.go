package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/combitest/combinatorial/domain"
)

type resultCache struct {
	db        *sql.DB
	namespace string
}

func (c *resultCache) ContainsResultFor(ctx context.Context, input domain.Combination) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM results WHERE namespace = ? AND combination = ?
	`, c.namespace, []byte(input.Key())).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *resultCache) ResultFor(ctx context.Context, input domain.Combination) (domain.TestResult, error) {
	var (
		result domain.TestResult
		cause  sql.NullString
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT outcome, cause FROM results WHERE namespace = ? AND combination = ?
	`, c.namespace, []byte(input.Key())).Scan(&result.Outcome, &cause)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TestResult{}, fmt.Errorf("%w: result for %v", domain.ErrNotFound, input)
	}
	if err != nil {
		return domain.TestResult{}, err
	}
	result.Cause = cause.String
	return result, nil
}

func (c *resultCache) AddResultFor(ctx context.Context, input domain.Combination, result domain.TestResult) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO results (namespace, combination, display, outcome, cause, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, combination) DO UPDATE SET
			outcome = excluded.outcome,
			cause = excluded.cause,
			recorded_at = excluded.recorded_at
	`, c.namespace, []byte(input.Key()), input.String(), int(result.Outcome), result.Cause, time.Now().UTC())
	return err
}
