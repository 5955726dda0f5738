// Package ipog generates covering arrays with the in-parameter-order-general
// strategy: it seeds with the product of the first parameters and then adds
// one parameter at a time, first widening the existing test inputs and then
// appending new ones for combinations still uncovered.
package ipog

import (
	"fmt"
	"sort"

	"github.com/example/combitest/combinatorial/combinator"
	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
)

// Configuration holds the collaborators of one generation.
type Configuration struct {
	Model *domain.TestModel

	// Checker decides validity. Default: the model's hard constraints.
	Checker constraint.Checker

	// Factory selects the parameter subsets to cover. Default: TWiseFactory.
	Factory ParameterCombinationFactory

	// Order is the parameter processing order. Default: StrengthBasedOrder.
	Order ParameterOrder
}

// WithDefaults returns a copy with defaults for nil collaborators.
func (c Configuration) WithDefaults() Configuration {
	if c.Checker == nil && c.Model != nil {
		c.Checker = constraint.NewModelChecker(c.Model)
	}
	if c.Factory == nil {
		c.Factory = TWiseFactory{}
	}
	if c.Order == nil {
		c.Order = StrengthBasedOrder{}
	}
	return c
}

// Validate checks that the configuration is usable.
func (c *Configuration) Validate() error {
	if c.Model == nil {
		return fmt.Errorf("%w: ipog configuration needs a model", domain.ErrInvalidConfig)
	}
	return nil
}

// Algorithm generates one test suite for a configuration.
type Algorithm struct {
	config Configuration
}

// New returns an algorithm for config with defaults applied.
func New(config Configuration) (*Algorithm, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Algorithm{config: config}, nil
}

// Generate returns complete, valid test inputs that cover every valid t-wise
// combination of the model. The result is deterministic. It is empty for
// strength zero or when no valid test input exists.
func (a *Algorithm) Generate() []domain.Combination {
	model := a.config.Model
	strength := model.Strength()
	n := model.NumberOfParameters()
	if strength == 0 || n == 0 {
		return nil
	}
	sizes := model.ParameterSizes()
	checker := a.config.Checker

	initial := a.config.Order.InitialParameters(sizes, strength)
	var inputs []domain.Combination
	for _, c := range combinator.CartesianProduct(initial, sizes, n) {
		if checker.IsValid(c) {
			inputs = append(inputs, c)
		}
	}

	processed := append([]int(nil), initial...)
	for _, p := range a.config.Order.RemainingParameters(sizes, strength) {
		subsets := a.config.Factory.Create(processed, strength)
		coverage := NewCoverageMap(subsets, p, sizes, checker)
		a.extendHorizontally(inputs, p, coverage)
		inputs = a.extendVertically(inputs, p, sizes[p], coverage)
		processed = append(processed, p)
	}

	return a.complete(inputs, sizes)
}

// extendHorizontally assigns p in every input, choosing the value that
// covers the most new combinations and keeps the input valid.
func (a *Algorithm) extendHorizontally(inputs []domain.Combination, p int, coverage *CoverageMap) {
	checker := a.config.Checker
	for _, input := range inputs {
		gains := coverage.ComputeGainsOfFixedParameter(input)
		candidates := make([]int, 0, len(gains))
		for v, gain := range gains {
			if gain >= 0 {
				candidates = append(candidates, v)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return gains[candidates[i]] > gains[candidates[j]]
		})
		for _, v := range candidates {
			input[p] = v
			if checker.IsValid(input) {
				break
			}
			input[p] = domain.NoValue
		}
		coverage.MarkAsCovered(input)
	}
}

// extendVertically covers the remaining combinations, merging each into an
// existing input where possible and appending a new input otherwise.
func (a *Algorithm) extendVertically(inputs []domain.Combination, p, size int, coverage *CoverageMap) []domain.Combination {
	partitioner := NewPartitioner(inputs, p, size)
	for {
		uncovered, ok := coverage.UncoveredCombination()
		if !ok {
			break
		}
		if index, ok := partitioner.ExtendSuitableCombination(uncovered, a.config.Checker); ok {
			coverage.MarkAsCovered(partitioner.Inputs()[index])
			continue
		}
		partitioner.Add(uncovered)
		coverage.MarkAsCovered(uncovered)
	}
	return partitioner.Inputs()
}

// complete fills every unset parameter with the lowest value that keeps the
// input valid. Inputs that cannot be completed and duplicates are dropped.
func (a *Algorithm) complete(inputs []domain.Combination, sizes []int) []domain.Combination {
	checker := a.config.Checker
	seen := make(map[domain.Key]bool, len(inputs))
	result := make([]domain.Combination, 0, len(inputs))
	for _, input := range inputs {
		if !a.fill(input, 0, sizes, checker) {
			continue
		}
		key := input.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, input)
	}
	return result
}

func (a *Algorithm) fill(input domain.Combination, from int, sizes []int, checker constraint.Checker) bool {
	for p := from; p < len(input); p++ {
		if input[p] != domain.NoValue {
			continue
		}
		for v := 0; v < sizes[p]; v++ {
			input[p] = v
			if checker.IsValid(input) && a.fill(input, p+1, sizes, checker) {
				return true
			}
		}
		input[p] = domain.NoValue
		return false
	}
	return checker.IsValid(input)
}
