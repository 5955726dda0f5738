package ipog

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
)

// subsetCoverage tracks the covered cells of one parameter subset extended by
// the fixed parameter. Cells are addressed in mixed radix with the fixed
// parameter as the most significant digit.
type subsetCoverage struct {
	// parameters holds the subset followed by the fixed parameter.
	parameters  []int
	sizes       []int
	multipliers []int
	cells       int

	covered intsets.Sparse
	// next is a lower bound for the first uncovered cell.
	next int
}

func newSubsetCoverage(subset []int, fixed int, sizes []int) *subsetCoverage {
	params := append(append([]int(nil), subset...), fixed)
	s := &subsetCoverage{
		parameters:  params,
		sizes:       make([]int, len(params)),
		multipliers: make([]int, len(params)),
	}
	multiplier := 1
	for i, p := range params {
		s.sizes[i] = sizes[p]
		s.multipliers[i] = multiplier
		multiplier *= sizes[p]
	}
	s.cells = multiplier
	return s
}

func (s *subsetCoverage) mayHaveUncovered() bool {
	return s.covered.Len() < s.cells
}

// index addresses the cell of c using the first count parameters only.
func (s *subsetCoverage) index(c domain.Combination, count int) int {
	index := 0
	for i := 0; i < count; i++ {
		index += c[s.parameters[i]] * s.multipliers[i]
	}
	return index
}

func (s *subsetCoverage) markAsCovered(c domain.Combination) {
	s.covered.Insert(s.index(c, len(s.parameters)))
}

func (s *subsetCoverage) values(index int) []int {
	values := make([]int, len(s.parameters))
	for i := range s.parameters {
		values[i] = (index / s.multipliers[i]) % s.sizes[i]
	}
	return values
}

func (s *subsetCoverage) addGains(c domain.Combination, gains []int, checker constraint.Checker) {
	if !s.mayHaveUncovered() {
		return
	}
	last := len(s.parameters) - 1
	base := s.index(c, last)
	values := make([]int, len(s.parameters))
	for i := 0; i < last; i++ {
		values[i] = c[s.parameters[i]]
	}
	for v := range gains {
		if gains[v] < 0 {
			continue
		}
		cell := base + v*s.multipliers[last]
		if s.covered.Has(cell) {
			continue
		}
		values[last] = v
		if checker.IsDualValid(s.parameters, values) {
			gains[v]++
		} else {
			s.covered.Insert(cell)
			gains[v] = -1
		}
	}
}

func (s *subsetCoverage) uncovered(n int, checker constraint.Checker) (domain.Combination, bool) {
	for ; s.next < s.cells; s.next++ {
		if s.covered.Has(s.next) {
			continue
		}
		values := s.values(s.next)
		if checker.IsDualValid(s.parameters, values) {
			c := domain.NewCombination(n)
			for i, p := range s.parameters {
				c[p] = values[i]
			}
			return c, true
		}
		s.covered.Insert(s.next)
	}
	return nil, false
}

// CoverageMap records which t-wise combinations involving one fixed parameter
// are already covered by the test inputs built so far. Each subset of
// previously processed parameters contributes the cells of subset ∪ {fixed}.
type CoverageMap struct {
	n       int
	fixed   int
	size    int
	subsets []*subsetCoverage
	checker constraint.Checker
}

// NewCoverageMap creates an empty map for the given parameter subsets. An
// empty subset list is treated as one empty subset so that the fixed
// parameter alone is covered.
func NewCoverageMap(subsets [][]int, fixed int, sizes []int, checker constraint.Checker) *CoverageMap {
	if fixed < 0 || fixed >= len(sizes) {
		panic(fmt.Sprintf("ipog: fixed parameter %d out of range", fixed))
	}
	if len(subsets) == 0 {
		subsets = [][]int{{}}
	}
	m := &CoverageMap{
		n:       len(sizes),
		fixed:   fixed,
		size:    sizes[fixed],
		checker: checker,
	}
	for _, subset := range subsets {
		for _, p := range subset {
			if p == fixed || p < 0 || p >= len(sizes) {
				panic(fmt.Sprintf("ipog: invalid parameter %d in subset %v for fixed parameter %d", p, subset, fixed))
			}
		}
		m.subsets = append(m.subsets, newSubsetCoverage(subset, fixed, sizes))
	}
	return m
}

// MayHaveUncoveredCombinations reports whether some cell is not yet marked.
// Cells found invalid later are marked lazily, so true is only a hint.
func (m *CoverageMap) MayHaveUncoveredCombinations() bool {
	for _, s := range m.subsets {
		if s.mayHaveUncovered() {
			return true
		}
	}
	return false
}

// MarkAsCovered marks every cell c contains. It does nothing if the fixed
// parameter is unset.
func (m *CoverageMap) MarkAsCovered(c domain.Combination) {
	m.checkLength(c)
	if c[m.fixed] == domain.NoValue {
		return
	}
	for _, s := range m.subsets {
		if c.ContainsAllParameters(s.parameters) {
			s.markAsCovered(c)
		}
	}
}

// ComputeGainsOfFixedParameter returns, for each value of the fixed
// parameter, how many uncovered cells assigning it to c would cover. Values
// that are invalid together with c get -1.
func (m *CoverageMap) ComputeGainsOfFixedParameter(c domain.Combination) []int {
	m.checkLength(c)
	gains := make([]int, m.size)
	for _, s := range m.subsets {
		if c.ContainsAllParameters(s.parameters[:len(s.parameters)-1]) {
			s.addGains(c, gains, m.checker)
		}
	}
	return gains
}

// UncoveredCombination returns a valid combination that is not yet covered.
// Invalid cells met on the way are marked covered.
func (m *CoverageMap) UncoveredCombination() (domain.Combination, bool) {
	for _, s := range m.subsets {
		if c, ok := s.uncovered(m.n, m.checker); ok {
			return c, true
		}
	}
	return nil, false
}

func (m *CoverageMap) checkLength(c domain.Combination) {
	if len(c) != m.n {
		panic(fmt.Sprintf("ipog: combination has %d parameters, coverage map expects %d", len(c), m.n))
	}
}
