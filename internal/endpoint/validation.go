package endpoint

import (
	"fmt"
	"strings"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/internal/modelfile"
)

func validateSubmitResultRequest(model *modelfile.Model, req *SubmitResultRequest) (domain.Combination, domain.TestResult, error) {
	input, err := combinationOf(model, req.Input)
	if err != nil {
		return nil, domain.TestResult{}, err
	}

	switch strings.ToUpper(req.Outcome) {
	case domain.OutcomePass.String():
		return input, domain.Success(), nil
	case domain.OutcomeFail.String():
		return input, domain.Failure(req.Cause), nil
	default:
		return nil, domain.TestResult{}, fmt.Errorf("%w: outcome must be PASS or FAIL, got %q",
			domain.ErrInvalidCombination, req.Outcome)
	}
}

// combinationOf converts a complete assignment.
func combinationOf(model *modelfile.Model, a Assignment) (domain.Combination, error) {
	if len(a) != len(model.Parameters) {
		return nil, fmt.Errorf("%w: input needs a value for each of the %d parameters, got %d",
			domain.ErrInvalidCombination, len(model.Parameters), len(a))
	}
	c := domain.NewCombination(len(model.Parameters))
	for name, value := range a {
		p, ok := model.ParameterIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", domain.ErrInvalidCombination, name)
		}
		v, ok := model.ValueIndex(p, value)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q has no value %q", domain.ErrInvalidCombination, name, value)
		}
		c[p] = v
	}
	return c, nil
}

func assignmentOf(model *modelfile.Model, c domain.Combination) Assignment {
	a := make(Assignment, c.NumberOfSetParameters())
	for p, v := range c {
		if v != domain.NoValue {
			a[model.Parameters[p].Name] = model.Parameters[p].Values[v]
		}
	}
	return a
}
