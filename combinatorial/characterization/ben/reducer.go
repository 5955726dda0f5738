package ben

import (
	"sort"

	"github.com/example/combitest/combinatorial/domain"
)

// Reduce returns the combinations one value smaller than the given
// suspicious combinations all of whose one-value extensions are suspicious.
// The given combinations must be distinct and have the same arity.
func Reduce(sizes []int, suspicious []domain.Combination) []domain.Combination {
	counts := make(map[domain.Key]int)
	var candidates []domain.Combination
	for _, c := range suspicious {
		for _, p := range c.SetParameters() {
			sub := c.Clone()
			sub[p] = domain.NoValue
			key := sub.Key()
			if counts[key] == 0 {
				candidates = append(candidates, sub)
			}
			counts[key]++
		}
	}

	var reduced []domain.Combination
	for _, sub := range candidates {
		extensions := 0
		for _, p := range sub.UnsetParameters() {
			extensions += sizes[p]
		}
		if counts[sub.Key()] == extensions {
			reduced = append(reduced, sub)
		}
	}
	sortCombinations(reduced)
	return reduced
}

func sortCombinations(combinations []domain.Combination) {
	sort.Slice(combinations, func(i, j int) bool {
		return combinations[i].Compare(combinations[j]) < 0
	})
}
