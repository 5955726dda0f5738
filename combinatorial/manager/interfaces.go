// Package manager drives a combinatorial test session: it hands out test
// inputs, collects their results and starts fault characterization when a
// group of test inputs saw failures.
package manager

import (
	"context"

	"github.com/example/combitest/combinatorial/domain"
)

// Manager is the contract between a session and whoever executes tests.
// Calls must be serialized by the caller unless the implementation says
// otherwise.
type Manager interface {
	// GenerateInitialTests returns the test inputs of every group.
	GenerateInitialTests(ctx context.Context) ([]domain.Combination, error)

	// GenerateAdditionalTestInputsWithResult records the result of an
	// executed test input and returns the test inputs that are needed next.
	// A result for a test input the manager never handed out is ignored.
	GenerateAdditionalTestInputsWithResult(ctx context.Context, input domain.Combination, result domain.TestResult) ([]domain.Combination, error)
}

// ResultCache stores results of executed test inputs. Implementations may
// persist results across sessions.
type ResultCache interface {
	// ContainsResultFor reports whether a result for input is stored.
	ContainsResultFor(ctx context.Context, input domain.Combination) (bool, error)

	// ResultFor returns the stored result or an error wrapping
	// domain.ErrNotFound.
	ResultFor(ctx context.Context, input domain.Combination) (domain.TestResult, error)

	// AddResultFor stores result for input, replacing an earlier one.
	AddResultFor(ctx context.Context, input domain.Combination, result domain.TestResult) error
}
