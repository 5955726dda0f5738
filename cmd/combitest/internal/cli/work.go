package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/endpoint"
	"github.com/example/combitest/internal/executor"
	grpctransport "github.com/example/combitest/internal/transport/grpc"
)

func newWorkCommand(a *app) *cobra.Command {
	var addr string
	var dir string

	cmd := &cobra.Command{
		Use:   "work -- <command> [args...]",
		Short: "Execute the tests of a served session",
		Long: `Connect to 'combitest serve', run the test command for each pending test
input and submit the results until the session is finished.

The command sees the same COMBITEST_* environment variables as with
'combitest run'.

EXAMPLES:
  combitest work --addr ci-host:50051 -- make test`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := grpctransport.Dial(addr)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", addr, err)
			}
			defer client.Close()

			runner := &executor.CommandRunner{Args: args, Timeout: a.cfg.Run.Timeout, Dir: dir}
			a.out.Header("Working")
			a.out.Info(fmt.Sprintf("Server: %s", addr))
			executed, err := client.Work(cmd.Context(), func(ctx context.Context, input endpoint.Assignment) (domain.TestResult, error) {
				result, err := runner.RunAssignment(ctx, input)
				if err != nil {
					return result, err
				}
				a.logger.Debug("test executed", "outcome", result.Outcome.String(), "cause", result.Cause)
				a.out.Info(fmt.Sprintf("%s %s", result.Outcome, formatAssignment(input)))
				return result, nil
			})
			if err != nil {
				return fmt.Errorf("stopped after %d tests: %w", executed, err)
			}
			a.out.Success(fmt.Sprintf("Session finished, %d tests executed", executed))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "address of the executor service")
	cmd.Flags().Duration("timeout", 10*time.Minute, "timeout of each test (0 = none)")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory of the test command")
	return cmd
}

func formatAssignment(a endpoint.Assignment) string {
	parts := make([]string, 0, len(a))
	for _, name := range slices.Sorted(maps.Keys(a)) {
		parts = append(parts, name+"="+a[name])
	}
	return strings.Join(parts, ", ")
}
