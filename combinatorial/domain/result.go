package domain

// TestOutcome is the verdict of executing one test input.
type TestOutcome int

const (
	OutcomeUnknown TestOutcome = iota
	OutcomePass                // Test passed
	OutcomeFail                // Test failed
)

func (o TestOutcome) String() string {
	switch o {
	case OutcomePass:
		return "PASS"
	case OutcomeFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// TestResult is the outcome reported by an executor for a test input.
type TestResult struct {
	Outcome TestOutcome

	// Cause describes why the test failed. Empty for passing tests.
	Cause string
}

// Success returns a passing result.
func Success() TestResult {
	return TestResult{Outcome: OutcomePass}
}

// Failure returns a failing result with the given cause.
func Failure(cause string) TestResult {
	return TestResult{Outcome: OutcomeFail, Cause: cause}
}

// IsSuccessful reports whether the test passed.
func (r TestResult) IsSuccessful() bool {
	return r.Outcome == OutcomePass
}

// IsFailure reports whether the test failed.
func (r TestResult) IsFailure() bool {
	return r.Outcome == OutcomeFail
}

// TestExecution pairs an executed test input with its result.
type TestExecution struct {
	Input  Combination
	Result TestResult
}
