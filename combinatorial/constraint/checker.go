// Package constraint decides whether combinations satisfy a model's
// constraints.
package constraint

import (
	"fmt"

	"github.com/example/combitest/combinatorial/domain"
)

// Checker decides whether a (partial) combination can be part of a valid
// test input.
type Checker interface {
	// IsValid reports whether c can be extended to a complete combination
	// that satisfies every constraint.
	IsValid(c domain.Combination) bool

	// IsDualValid is IsValid for the combination that assigns values[i] to
	// parameters[i] and leaves everything else unset.
	IsDualValid(parameters, values []int) bool
}

// CheckerFactory creates checkers for a model.
type CheckerFactory interface {
	// Create returns a checker for positive test inputs: forbidden tuples and
	// error tuples must not appear.
	Create(model *domain.TestModel) Checker

	// CreateWithNegation returns a checker for negative test inputs of one
	// error tuple list: every complete input contains one of its tuples and
	// none of the other lists' tuples.
	CreateWithNegation(model *domain.TestModel, errorList domain.TupleList) Checker
}

// NoConstraintChecker accepts everything.
type NoConstraintChecker struct{}

func (NoConstraintChecker) IsValid(domain.Combination) bool { return true }

func (NoConstraintChecker) IsDualValid([]int, []int) bool { return true }

// HardChecker enforces forbidden tuples exactly: a partial combination is
// valid only if some completion of it avoids every forbidden tuple.
type HardChecker struct {
	sizes     []int
	forbidden []domain.TupleList
	required  *domain.TupleList

	// involved lists, in ascending order, the parameters that appear in any
	// forbidden tuple. Only those need to be searched when completing.
	involved []int
}

// NewHardChecker returns a checker that forbids the given tuple lists.
func NewHardChecker(sizes []int, forbidden []domain.TupleList) *HardChecker {
	inUse := make([]bool, len(sizes))
	for _, list := range forbidden {
		for _, p := range list.Parameters {
			inUse[p] = true
		}
	}
	var involved []int
	for p, used := range inUse {
		if used {
			involved = append(involved, p)
		}
	}
	return &HardChecker{
		sizes:     append([]int(nil), sizes...),
		forbidden: forbidden,
		involved:  involved,
	}
}

// NewModelChecker forbids the model's forbidden and error tuples.
func NewModelChecker(model *domain.TestModel) *HardChecker {
	lists := append(model.ForbiddenTupleLists(), model.ErrorTupleLists()...)
	return NewHardChecker(model.ParameterSizes(), lists)
}

// NewNegatedChecker forbids the model's forbidden tuples and every error list
// except errorList, and requires one tuple of errorList.
func NewNegatedChecker(model *domain.TestModel, errorList domain.TupleList) *HardChecker {
	lists := model.ForbiddenTupleLists()
	for _, l := range model.ErrorTupleLists() {
		if l.ID != errorList.ID {
			lists = append(lists, l)
		}
	}
	h := NewHardChecker(model.ParameterSizes(), lists)
	h.required = &errorList
	return h
}

func (h *HardChecker) IsValid(c domain.Combination) bool {
	if len(c) != len(h.sizes) {
		panic(fmt.Sprintf("constraint: combination has %d parameters, model has %d", len(c), len(h.sizes)))
	}
	if h.required == nil {
		if len(h.forbidden) == 0 {
			return true
		}
		return h.satisfiable(c.Clone())
	}

	for _, tuple := range h.required.Tuples {
		candidate := c.Clone()
		compatible := true
		for j, p := range h.required.Parameters {
			if candidate[p] != domain.NoValue && candidate[p] != tuple[j] {
				compatible = false
				break
			}
			candidate[p] = tuple[j]
		}
		if compatible && h.satisfiable(candidate) {
			return true
		}
	}
	return false
}

func (h *HardChecker) IsDualValid(parameters, values []int) bool {
	if len(parameters) != len(values) {
		panic(fmt.Sprintf("constraint: %d parameters but %d values", len(parameters), len(values)))
	}
	c := domain.NewCombination(len(h.sizes))
	for i, p := range parameters {
		c[p] = values[i]
	}
	return h.IsValid(c)
}

// satisfiable searches for a completion of c over the involved parameters.
// c is used as scratch space and restored before returning.
func (h *HardChecker) satisfiable(c domain.Combination) bool {
	if h.violates(c) {
		return false
	}
	for _, p := range h.involved {
		if c[p] != domain.NoValue {
			continue
		}
		for v := 0; v < h.sizes[p]; v++ {
			c[p] = v
			if h.satisfiable(c) {
				c[p] = domain.NoValue
				return true
			}
		}
		c[p] = domain.NoValue
		return false
	}
	return true
}

func (h *HardChecker) violates(c domain.Combination) bool {
	for _, list := range h.forbidden {
		for i := range list.Tuples {
			if list.Matches(c, i) {
				return true
			}
		}
	}
	return false
}

// HardCheckerFactory creates HardCheckers.
type HardCheckerFactory struct{}

func (HardCheckerFactory) Create(model *domain.TestModel) Checker {
	return NewModelChecker(model)
}

func (HardCheckerFactory) CreateWithNegation(model *domain.TestModel, errorList domain.TupleList) Checker {
	return NewNegatedChecker(model, errorList)
}
