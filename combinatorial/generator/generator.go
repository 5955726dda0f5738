// Package generator turns a test model into groups of test inputs.
package generator

import (
	"fmt"

	"github.com/example/combitest/combinatorial/characterization"
	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/ipog"
)

// TestInputGroup is a set of test inputs generated for one purpose.
type TestInputGroup struct {
	// ID identifies the group within a session.
	ID string

	// TestInputs are complete combinations in generation order.
	TestInputs []domain.Combination

	// Characterization is non-nil if failures in this group should be
	// characterized.
	Characterization *characterization.Configuration
}

// Generator produces test input groups for a model.
type Generator interface {
	Generate(model *domain.TestModel) ([]*TestInputGroup, error)
}

// Positive generates one group covering every valid t-wise combination
// while avoiding forbidden and error tuples.
type Positive struct {
	// Checkers creates the constraint checker. Default: HardCheckerFactory.
	Checkers constraint.CheckerFactory
}

func (g Positive) Generate(model *domain.TestModel) ([]*TestInputGroup, error) {
	checker := checkerFactory(g.Checkers).Create(model)
	alg, err := ipog.New(ipog.Configuration{Model: model, Checker: checker})
	if err != nil {
		return nil, err
	}
	return []*TestInputGroup{{
		ID:               "positive",
		TestInputs:       alg.Generate(),
		Characterization: &characterization.Configuration{Model: model, Checker: checker},
	}}, nil
}

// Negative generates one group per error tuple list. Each input of a group
// contains exactly one list's error tuple and no tuple of the other lists,
// so a failure can be attributed to that list.
type Negative struct {
	Checkers constraint.CheckerFactory
}

func (g Negative) Generate(model *domain.TestModel) ([]*TestInputGroup, error) {
	var groups []*TestInputGroup
	for _, errorList := range model.ErrorTupleLists() {
		checker := checkerFactory(g.Checkers).CreateWithNegation(model, errorList)
		alg, err := ipog.New(ipog.Configuration{
			Model:   model,
			Checker: checker,
			Order:   ipog.NegativityAwareOrder{Parameters: errorList.Parameters},
		})
		if err != nil {
			return nil, err
		}
		groups = append(groups, &TestInputGroup{
			ID:               fmt.Sprintf("negative-%d", errorList.ID),
			TestInputs:       alg.Generate(),
			Characterization: &characterization.Configuration{Model: model, Checker: checker},
		})
	}
	return groups, nil
}

func checkerFactory(f constraint.CheckerFactory) constraint.CheckerFactory {
	if f == nil {
		return constraint.HardCheckerFactory{}
	}
	return f
}
