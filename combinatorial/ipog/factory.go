package ipog

import "github.com/example/combitest/combinatorial/combinator"

// ParameterCombinationFactory chooses the subsets of processed parameters
// whose combinations with the next parameter must be covered.
type ParameterCombinationFactory interface {
	Create(processed []int, strength int) [][]int
}

// TWiseFactory requires every (t-1)-subset of processed parameters, which
// yields full t-wise coverage.
type TWiseFactory struct{}

func (TWiseFactory) Create(processed []int, strength int) [][]int {
	if strength < 1 {
		return nil
	}
	return combinator.ParameterCombinations(processed, min(strength-1, len(processed)))
}
