package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/internal/observability"
)

// Loop drives a manager: it executes every test input the manager asks for
// and hands the results back until no inputs are pending.
type Loop struct {
	Manager manager.Manager
	Runner  Runner

	// Parallel bounds concurrent executions within a batch. Default: 1.
	Parallel int

	// Optional.
	Metrics  *observability.Metrics
	Logger   *slog.Logger
	OnResult func(execution domain.TestExecution)
}

// Summary describes a finished loop.
type Summary struct {
	Executed   int
	Failed     int
	Batches    int
	Executions []domain.TestExecution
}

// Run executes the session. Results are fed to the manager in the order the
// manager produced the inputs, so a run is deterministic for a deterministic
// runner regardless of Parallel.
func (l *Loop) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pending, err := l.Manager.GenerateInitialTests(ctx)
	if err != nil {
		return summary, err
	}

	for len(pending) > 0 {
		summary.Batches++
		logger.Debug("executing batch", "batch", summary.Batches, "inputs", len(pending))

		results, err := l.execute(ctx, pending)
		if err != nil {
			return summary, err
		}

		var next []domain.Combination
		for i, input := range pending {
			execution := domain.TestExecution{Input: input, Result: results[i]}
			summary.Executed++
			if results[i].IsFailure() {
				summary.Failed++
				logger.Info("test failed", "input", input.String(), "cause", results[i].Cause)
			}
			summary.Executions = append(summary.Executions, execution)
			if l.OnResult != nil {
				l.OnResult(execution)
			}

			more, err := l.Manager.GenerateAdditionalTestInputsWithResult(ctx, input, results[i])
			if err != nil {
				return summary, fmt.Errorf("failed to record result of %v: %w", input, err)
			}
			next = append(next, more...)
		}
		pending = next
	}

	logger.Info("session finished", "executed", summary.Executed, "failed", summary.Failed, "batches", summary.Batches)
	return summary, nil
}

func (l *Loop) execute(ctx context.Context, inputs []domain.Combination) ([]domain.TestResult, error) {
	results := make([]domain.TestResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Parallel, 1))

	for i, input := range inputs {
		g.Go(func() error {
			start := time.Now()
			result, err := l.Runner.Run(gctx, input)
			if err != nil {
				return fmt.Errorf("failed to execute %v: %w", input, err)
			}
			if l.Metrics != nil {
				l.Metrics.ObserveTest(result, time.Since(start))
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
