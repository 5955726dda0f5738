package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/executor"
	"github.com/example/combitest/internal/storage"
	"github.com/example/combitest/pkg/id"
)

// errFailureInducing is returned with --exit-code when a run found
// failure-inducing combinations.
var errFailureInducing = errors.New("failure-inducing combinations found")

func newRunCommand(a *app) *cobra.Command {
	var dir string
	var noCache bool
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "run <model> -- <command> [args...]",
		Short: "Run the test inputs of a model and characterize failures",
		Long: `Run a test command once per test input of the model.

The command sees the values of the input as environment variables named
after the parameters, e.g. COMBITEST_BROWSER=firefox, and COMBITEST_INPUT
with all of them. Exiting non-zero or exceeding the timeout fails the test.

Failing tests start fault characterization, which runs additional inputs
until the failure-inducing combinations are known. Results are cached per
model, so a repeated run only executes inputs it has not seen.

A single command argument is run through /bin/sh.

EXAMPLES:
  # Run a script
  combitest run model.yaml -- ./scripts/e2e.sh

  # Use a shell expression, four tests at a time
  combitest run model.yaml -p 4 -- 'go test ./... -run "$COMBITEST_SUITE"'

  # Ignore cached results
  combitest run model.yaml --no-cache -- make test`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.ArgsLenAtDash() != 1 {
				return fmt.Errorf("%w: usage: combitest run <model> -- <command>", domain.ErrInvalidConfig)
			}
			ctx := cmd.Context()
			model, tm, err := loadModel(args[0])
			if err != nil {
				return err
			}

			st, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			cache := st.results(tm.Fingerprint())
			if noCache {
				cache = nil
			}
			sess, err := a.newSession(model, tm, cache)
			if err != nil {
				return err
			}

			runner := &executor.CommandRunner{
				Model:   model,
				Args:    args[1:],
				Timeout: a.cfg.Run.Timeout,
				Dir:     dir,
			}
			fics, err := a.runSession(ctx, args[0], sess, runner, st.sessions())
			if err != nil {
				return err
			}
			if exitCode && len(fics) > 0 {
				return errFailureInducing
			}
			return nil
		},
	}

	cmd.Flags().IntP("parallel", "p", 1, "number of tests run at the same time")
	cmd.Flags().Duration("timeout", 10*time.Minute, "timeout of each test (0 = none)")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory of the test command")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "execute every input even if a result is cached")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit non-zero when failure-inducing combinations are found")
	return cmd
}

// runSession executes a session with runner, records it in sessions when
// given, and prints the outcome. It returns the failure-inducing
// combinations.
func (a *app) runSession(ctx context.Context, modelPath string, sess *session, runner executor.Runner, sessions storage.SessionStore) ([]domain.Combination, error) {
	record := &storage.Session{
		ID:          id.New(),
		ModelPath:   modelPath,
		Fingerprint: sess.testModel.Fingerprint(),
		Strength:    sess.testModel.Strength(),
		State:       storage.SessionRunning,
		CreatedAt:   time.Now().UTC(),
	}
	if sessions != nil {
		if err := sessions.CreateSession(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	a.out.Header("Running Tests")
	a.out.Info(fmt.Sprintf("Session: %s", record.ID))
	a.out.Info(fmt.Sprintf("Model: %s (%d parameters, strength %d)",
		modelPath, sess.testModel.NumberOfParameters(), sess.testModel.Strength()))
	a.out.Info("")

	loop := &executor.Loop{
		Manager:  sess.manager,
		Runner:   runner,
		Parallel: a.cfg.Run.Parallel,
		Metrics:  sess.metrics,
		Logger:   a.logger,
		OnResult: func(execution domain.TestExecution) {
			a.out.Result(sess.model, execution)
		},
	}
	start := time.Now()
	summary, runErr := loop.Run(ctx)
	fics := sess.recorder.FailureInducingCombinations()

	state := storage.SessionFinished
	if runErr != nil {
		state = storage.SessionFailed
	}
	if sessions != nil {
		// The run context may be cancelled already; the outcome is still recorded.
		saveCtx := context.WithoutCancel(ctx)
		finished := time.Now().UTC()
		if err := sessions.FinishSession(saveCtx, record.ID, state, summary.Executed, summary.Failed, finished); err != nil {
			return nil, errors.Join(runErr, fmt.Errorf("failed to finish session: %w", err))
		}
		if runErr == nil {
			err := sessions.SaveReport(saveCtx, &storage.Report{SessionID: record.ID, FailureInducing: fics, CreatedAt: finished})
			if err != nil {
				return nil, fmt.Errorf("failed to save report: %w", err)
			}
		}
	}
	if runErr != nil {
		a.out.Error(fmt.Sprintf("Session %s failed after %d tests", record.ID, summary.Executed))
		return nil, runErr
	}

	a.out.Header("Groups")
	a.out.GroupsTable(sess.recorder.Groups())
	a.out.Header("Failure-Inducing Combinations")
	a.out.FailureInducingTable(sess.model, fics)
	a.out.Summary(summary.Executed, summary.Failed, len(fics), time.Since(start))
	return fics, nil
}
