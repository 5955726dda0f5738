// Package characterization defines how fault characterization algorithms
// plug into test generation.
package characterization

import (
	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
)

// Algorithm localizes the combinations responsible for failures. It is fed
// executed test inputs in rounds and asks for more until it is confident.
type Algorithm interface {
	// NextTestInputs records the results of the last round and returns the
	// test inputs for the next one. An empty result ends characterization.
	NextTestInputs(executions []domain.TestExecution) []domain.Combination

	// FailureInducingCombinations returns the suspected combinations, most
	// probable first.
	FailureInducingCombinations() []domain.Combination
}

// Configuration is what an algorithm needs to know about a test group.
type Configuration struct {
	Model   *domain.TestModel
	Checker constraint.Checker
}

// Factory creates an algorithm for one test group.
type Factory interface {
	Name() string
	Create(config Configuration) Algorithm
}
