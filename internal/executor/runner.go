// Package executor runs test inputs and feeds their results back into a
// manager until the session needs no more tests.
package executor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/modelfile"
)

// EnvPrefix starts the name of every environment variable set for a test.
const EnvPrefix = "COMBITEST_"

// Runner executes one test input. A returned error means the test could not
// be executed at all; a failing test is a domain.Failure result.
type Runner interface {
	Run(ctx context.Context, input domain.Combination) (domain.TestResult, error)
}

// FuncRunner adapts a function to Runner.
type FuncRunner func(ctx context.Context, input domain.Combination) (domain.TestResult, error)

func (f FuncRunner) Run(ctx context.Context, input domain.Combination) (domain.TestResult, error) {
	return f(ctx, input)
}

// CommandRunner runs a command once per test input. The values of the input
// are passed as environment variables named after the parameters, e.g.
// COMBITEST_BROWSER=firefox. COMBITEST_INPUT holds all of them.
type CommandRunner struct {
	Model *modelfile.Model

	// Args is the command line. A single argument is run through Shell.
	Args []string

	// Timeout bounds each execution. Zero means no limit.
	Timeout time.Duration

	// Dir is the working directory. Empty means the current one.
	Dir string

	// Shell runs single-argument commands. Default: /bin/sh.
	Shell string
}

// Run executes the command. Exiting non-zero or exceeding the timeout is a
// test failure.
func (r *CommandRunner) Run(ctx context.Context, input domain.Combination) (domain.TestResult, error) {
	return r.run(ctx, Environment(r.Model, input))
}

// RunAssignment executes the command for an input given by parameter and
// value names, as remote executors receive it. Model is not needed.
func (r *CommandRunner) RunAssignment(ctx context.Context, assignment map[string]string) (domain.TestResult, error) {
	return r.run(ctx, AssignmentEnvironment(assignment))
}

func (r *CommandRunner) run(ctx context.Context, env []string) (domain.TestResult, error) {
	if len(r.Args) == 0 {
		return domain.TestResult{}, fmt.Errorf("%w: no command to run", domain.ErrInvalidConfig)
	}
	if err := ctx.Err(); err != nil {
		return domain.TestResult{}, err
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if len(r.Args) == 1 {
		shell := r.Shell
		if shell == "" {
			shell = "/bin/sh"
		}
		cmd = exec.CommandContext(runCtx, shell, "-c", r.Args[0])
	} else {
		cmd = exec.CommandContext(runCtx, r.Args[0], r.Args[1:]...)
	}
	cmd.Dir = r.Dir
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), env...)

	output, err := cmd.CombinedOutput()

	if ctx.Err() != nil {
		return domain.TestResult{}, ctx.Err()
	}
	if runCtx.Err() != nil {
		return domain.Failure(fmt.Sprintf("timed out after %v", r.Timeout)), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cause := exitErr.Error()
		if line := lastLine(output); line != "" {
			cause += ": " + line
		}
		return domain.Failure(cause), nil
	}
	if err != nil {
		return domain.TestResult{}, fmt.Errorf("failed to run %s: %w", r.Args[0], err)
	}
	return domain.Success(), nil
}

// Environment returns the environment variables describing input.
func Environment(model *modelfile.Model, input domain.Combination) []string {
	env := make([]string, 0, len(input)+1)
	for p, v := range input {
		if v == domain.NoValue {
			continue
		}
		param := model.Parameters[p]
		env = append(env, EnvName(param.Name)+"="+param.Values[v])
	}
	env = append(env, EnvPrefix+"INPUT="+model.FormatAssignment(input))
	return env
}

// AssignmentEnvironment is Environment for an input given by names.
func AssignmentEnvironment(assignment map[string]string) []string {
	names := slices.Sorted(maps.Keys(assignment))
	env := make([]string, 0, len(names)+1)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		env = append(env, EnvName(name)+"="+assignment[name])
		parts = append(parts, name+"="+assignment[name])
	}
	env = append(env, EnvPrefix+"INPUT="+strings.Join(parts, ", "))
	return env
}

// EnvName returns the environment variable of a parameter. Letters are
// upper-cased and everything but letters and digits becomes an underscore.
func EnvName(parameter string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	for _, r := range parameter {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
