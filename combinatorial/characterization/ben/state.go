package ben

import "github.com/example/combitest/combinatorial/domain"

// State is everything BEN carries from one iteration to the next. Engine.Step
// never modifies the State it is given.
type State struct {
	// Executions holds every executed test input once, in order of first
	// arrival. A later result for the same input replaces the earlier one.
	Executions []domain.TestExecution

	// Suspicious are the t-wise combinations that appear in a failed test
	// input and in no passing one, sorted.
	Suspicious []domain.Combination

	// PreviousSuspiciousCount is len(Suspicious) before the last step.
	PreviousSuspiciousCount int

	// EndInNextIteration is set when a combination could not get a new test
	// input. The next step stops generating.
	EndInNextIteration bool

	// Iteration counts the steps taken.
	Iteration int

	tested map[domain.Key]int
}

// IsTested reports whether c has a recorded result.
func (s *State) IsTested(c domain.Combination) bool {
	_, ok := s.tested[c.Key()]
	return ok
}

// withExecutions returns a copy of s that also records executions.
func (s State) withExecutions(executions []domain.TestExecution) State {
	next := s
	next.Executions = make([]domain.TestExecution, len(s.Executions), len(s.Executions)+len(executions))
	copy(next.Executions, s.Executions)
	next.tested = make(map[domain.Key]int, len(s.Executions)+len(executions))
	for i, e := range next.Executions {
		next.tested[e.Input.Key()] = i
	}
	for _, e := range executions {
		key := e.Input.Key()
		execution := domain.TestExecution{Input: e.Input.Clone(), Result: e.Result}
		if i, ok := next.tested[key]; ok {
			next.Executions[i] = execution
			continue
		}
		next.tested[key] = len(next.Executions)
		next.Executions = append(next.Executions, execution)
	}
	return next
}
