// Package combinator enumerates parameter subsets, value products and
// sub-combinations.
package combinator

import "github.com/example/combitest/combinatorial/domain"

// ParameterCombinations returns every subset of params with exactly size
// elements, preserving the order of params. Size zero yields one empty subset.
func ParameterCombinations(params []int, size int) [][]int {
	if size < 0 || size > len(params) {
		return nil
	}
	var result [][]int
	current := make([]int, 0, size)
	var walk func(start int)
	walk = func(start int) {
		if len(current) == size {
			subset := make([]int, size)
			copy(subset, current)
			result = append(result, subset)
			return
		}
		for i := start; i <= len(params)-(size-len(current)); i++ {
			current = append(current, params[i])
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)
	return result
}

// CartesianProduct returns every assignment of the given parameters, each a
// combination of n parameters with the rest unset. The last parameter varies
// fastest.
func CartesianProduct(params []int, sizes []int, n int) []domain.Combination {
	total := 1
	for _, p := range params {
		total *= sizes[p]
	}
	result := make([]domain.Combination, 0, total)
	current := domain.NewCombination(n)
	for _, p := range params {
		current[p] = 0
	}
	for {
		result = append(result, current.Clone())
		i := len(params) - 1
		for ; i >= 0; i-- {
			p := params[i]
			current[p]++
			if current[p] < sizes[p] {
				break
			}
			current[p] = 0
		}
		if i < 0 {
			return result
		}
	}
}

// Combinations returns every combination over sizes in which exactly
// strength parameters are set.
func Combinations(sizes []int, strength int) []domain.Combination {
	all := make([]int, len(sizes))
	for i := range all {
		all[i] = i
	}
	var result []domain.Combination
	for _, params := range ParameterCombinations(all, strength) {
		result = append(result, CartesianProduct(params, sizes, len(sizes))...)
	}
	return result
}

// SubCombinations returns every sub-combination of c that keeps exactly size
// of c's set values. It returns nothing if c has fewer set values.
func SubCombinations(c domain.Combination, size int) []domain.Combination {
	params := ParameterCombinations(c.SetParameters(), size)
	result := make([]domain.Combination, 0, len(params))
	for _, subset := range params {
		sub := domain.NewCombination(len(c))
		for _, p := range subset {
			sub[p] = c[p]
		}
		result = append(result, sub)
	}
	return result
}
