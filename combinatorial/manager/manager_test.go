package manager

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/example/combitest/combinatorial/characterization/ben"
	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/report"
)

const x = domain.NoValue

func newBenFactory(t *testing.T) *ben.Factory {
	t.Helper()
	factory, err := ben.NewFactory(domain.CharacterizationConfig{RandomSeed: 7})
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	return factory
}

// execute plays executor: every input containing one of the failure-inducing
// combinations fails. It returns the number of executed inputs.
func execute(t *testing.T, m Manager, failureInducing []domain.Combination) int {
	t.Helper()
	ctx := context.Background()
	pending, err := m.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	executed := 0
	for len(pending) > 0 {
		input := pending[0]
		pending = pending[1:]
		executed++
		if executed > 10000 {
			t.Fatal("session does not terminate")
		}

		result := domain.Success()
		for _, fic := range failureInducing {
			if input.Contains(fic) {
				result = domain.Failure(fmt.Sprintf("contains %v", fic))
			}
		}
		next, err := m.GenerateAdditionalTestInputsWithResult(ctx, input, result)
		if err != nil {
			t.Fatalf("GenerateAdditionalTestInputsWithResult failed: %v", err)
		}
		pending = append(pending, next...)
	}
	return executed
}

func TestCharacterizationFindsFailureInducingCombinations(t *testing.T) {
	tests := []struct {
		sizes    []int
		strength int
		fics     []domain.Combination
	}{
		{sizes: []int{2}, strength: 1, fics: []domain.Combination{{0}}},
		{sizes: []int{2, 2}, strength: 2, fics: []domain.Combination{{0, x}}},
		{sizes: []int{2, 2}, strength: 1, fics: []domain.Combination{{0, x}}},
		{sizes: []int{2, 2}, strength: 2, fics: []domain.Combination{{1, x}, {x, 0}}},
		{sizes: []int{4, 4, 4, 4}, strength: 2, fics: []domain.Combination{{x, 1, x, 3}}},
		{sizes: []int{4, 4, 4, 4}, strength: 2, fics: []domain.Combination{{x, x, 0, 0}, {x, 0, 1, x}}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/t=%d/%v", tt.sizes, tt.strength, tt.fics), func(t *testing.T) {
			model := domain.MustNewTestModel(tt.strength, tt.sizes, nil, nil)
			recorder := report.NewRecorder()
			m, err := NewBasic(model, Configuration{
				Characterization: newBenFactory(t),
				Reporter:         recorder,
			})
			if err != nil {
				t.Fatalf("NewBasic failed: %v", err)
			}

			execute(t, m, tt.fics)

			if !m.IsFinished() {
				t.Error("expected every group to be finished")
			}
			found := recorder.FailureInducingCombinations()
			for _, fic := range tt.fics {
				if !containsCombination(found, fic) {
					t.Errorf("failure-inducing combination %v not reported, got %v", fic, found)
				}
			}
		})
	}
}

func TestNoCharacterizationWithoutFailures(t *testing.T) {
	recorder := report.NewRecorder()
	m, err := NewBasic(domain.MustNewTestModel(2, []int{3, 3, 3}, nil, nil), Configuration{
		Characterization: newBenFactory(t),
		Reporter:         recorder,
	})
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}
	executed := execute(t, m, nil)

	groups := recorder.Groups()
	if len(groups) != 1 || groups[0].Characterized || !groups[0].Finished {
		t.Errorf("groups = %+v", groups)
	}
	if executed != groups[0].InitialInputs {
		t.Errorf("executed %d inputs, want %d", executed, groups[0].InitialInputs)
	}
}

func TestNoCharacterizationWithoutFactory(t *testing.T) {
	recorder := report.NewRecorder()
	m, err := NewBasic(domain.MustNewTestModel(1, []int{2, 2}, nil, nil), Configuration{Reporter: recorder})
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}
	execute(t, m, []domain.Combination{{0, x}})
	if groups := recorder.Groups(); groups[0].Characterized {
		t.Errorf("group characterized without a factory: %+v", groups[0])
	}
}

func TestUnknownResultIsIgnored(t *testing.T) {
	m, err := NewBasic(domain.MustNewTestModel(1, []int{2, 2}, nil, nil), Configuration{Characterization: newBenFactory(t)})
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}
	ctx := context.Background()
	initial, err := m.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	if len(initial) != 2 {
		t.Fatalf("initial = %v", initial)
	}

	next, err := m.GenerateAdditionalTestInputsWithResult(ctx, domain.Combination{0, 1}, domain.Failure("unknown"))
	if err != nil || len(next) != 0 {
		t.Errorf("unknown result = %v, %v, want nothing", next, err)
	}

	// reporting the same result twice is harmless
	for i := 0; i < 2; i++ {
		if _, err := m.GenerateAdditionalTestInputsWithResult(ctx, initial[0], domain.Success()); err != nil {
			t.Fatalf("GenerateAdditionalTestInputsWithResult failed: %v", err)
		}
	}
	if m.IsFinished() {
		t.Error("group finished before all results arrived")
	}

	if _, err := m.GenerateAdditionalTestInputsWithResult(ctx, domain.Combination{0}, domain.Success()); err == nil {
		t.Error("expected error for a combination of the wrong length")
	}
}

func TestNegativeGroupsAreCharacterized(t *testing.T) {
	errorList := domain.TupleList{ID: 1, Parameters: []int{0, 1}, Tuples: [][]int{{0, 0}}}
	model := domain.MustNewTestModel(2, []int{2, 2, 2, 2}, nil, []domain.TupleList{errorList})
	recorder := report.NewRecorder()
	m, err := NewBasic(model, Configuration{
		Generators:       []generator.Generator{generator.Positive{}, generator.Negative{}},
		Characterization: newBenFactory(t),
		Reporter:         recorder,
	})
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}

	// the system fails exactly on the error tuple
	execute(t, m, []domain.Combination{{0, 0, x, x}})

	groups := recorder.Groups()
	if len(groups) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Characterized {
		t.Error("positive group should not fail")
	}
	if !groups[1].Characterized || !containsCombination(groups[1].FailureInducing, domain.Combination{0, 0, x, x}) {
		t.Errorf("negative group = %+v", groups[1])
	}
}

func containsCombination(list []domain.Combination, c domain.Combination) bool {
	for _, candidate := range list {
		if candidate.Equal(c) {
			return true
		}
	}
	return false
}

// Every reported failure-inducing combination is part of some failed input.
func TestFailureInducingCombinationsComeFromFailedInputsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "parameters")
		sizes := make([]int, n)
		for i := range sizes {
			sizes[i] = rapid.IntRange(1, 4).Draw(rt, fmt.Sprintf("size%d", i))
		}
		strength := rapid.IntRange(1, min(n, 3)).Draw(rt, "strength")

		fault := domain.NewCombination(n)
		first := rapid.IntRange(0, n-1).Draw(rt, "faultParameter")
		fault[first] = rapid.IntRange(0, sizes[first]-1).Draw(rt, "faultValue")
		for i := range sizes {
			if i != first && rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("inFault%d", i)) == 0 {
				fault[i] = rapid.IntRange(0, sizes[i]-1).Draw(rt, fmt.Sprintf("faultValue%d", i))
			}
		}

		factory, err := ben.NewFactory(domain.CharacterizationConfig{
			RandomSeed: rapid.Int64().Draw(rt, "seed"),
		})
		if err != nil {
			rt.Fatalf("NewFactory failed: %v", err)
		}
		recorder := report.NewRecorder()
		m, err := NewBasic(domain.MustNewTestModel(strength, sizes, nil, nil), Configuration{
			Characterization: factory,
			Reporter:         recorder,
		})
		if err != nil {
			rt.Fatalf("NewBasic failed: %v", err)
		}

		ctx := context.Background()
		pending, err := m.GenerateInitialTests(ctx)
		if err != nil {
			rt.Fatalf("GenerateInitialTests failed: %v", err)
		}
		var failed []domain.Combination
		for executed := 0; len(pending) > 0; executed++ {
			if executed > 10000 {
				rt.Fatalf("session does not terminate")
			}
			input := pending[0]
			pending = pending[1:]
			result := domain.Success()
			if input.Contains(fault) {
				result = domain.Failure("fault")
				failed = append(failed, input)
			}
			next, err := m.GenerateAdditionalTestInputsWithResult(ctx, input, result)
			if err != nil {
				rt.Fatalf("GenerateAdditionalTestInputsWithResult failed: %v", err)
			}
			pending = append(pending, next...)
		}

		for _, fic := range recorder.FailureInducingCombinations() {
			found := false
			for _, input := range failed {
				if input.Contains(fic) {
					found = true
					break
				}
			}
			if !found {
				rt.Fatalf("%v is not part of any failed input (fault %v)", fic, fault)
			}
		}
	})
}
