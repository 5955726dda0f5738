// Package ben localizes failure-inducing combinations with the BEN
// heuristic: it ranks the t-wise combinations seen only in failing test
// inputs by how suspicious their values are, builds new test inputs around
// the most suspicious ones, and repeats until the suspicious set settles.
package ben

import (
	"math"
	"math/rand"
	"sort"

	"github.com/example/combitest/combinatorial/characterization"
	"github.com/example/combitest/combinatorial/combinator"
	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
)

// Name identifies BEN in reports.
const Name = "BEN"

// Engine holds the immutable parts of a characterization: the model, the
// checker for new test inputs and the tuning knobs.
type Engine struct {
	model   *domain.TestModel
	checker constraint.Checker
	config  domain.CharacterizationConfig
}

// NewEngine validates config and returns an engine.
func NewEngine(model *domain.TestModel, checker constraint.Checker, config domain.CharacterizationConfig) (*Engine, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if checker == nil {
		checker = constraint.NewModelChecker(model)
	}
	return &Engine{model: model, checker: checker, config: config}, nil
}

// Step records executions and returns the successor state together with the
// test inputs to execute next. No test inputs means characterization is done.
func (e *Engine) Step(state State, executions []domain.TestExecution) (State, []domain.Combination) {
	next := state.withExecutions(executions)
	next.PreviousSuspiciousCount = len(state.Suspicious)
	next.Suspicious = e.suspiciousCombinations(next.Executions)
	next.Iteration = state.Iteration + 1

	if !e.shouldGenerate(next) {
		return next, nil
	}

	inputs, exhausted := e.generate(next)
	if exhausted {
		next.EndInNextIteration = true
	}

	seen := make(map[domain.Key]bool, len(inputs))
	var fresh []domain.Combination
	for _, input := range inputs {
		key := input.Key()
		if seen[key] || next.IsTested(input) {
			continue
		}
		seen[key] = true
		fresh = append(fresh, input)
	}
	return next, fresh
}

func (e *Engine) shouldGenerate(s State) bool {
	return s.PreviousSuspiciousCount != len(s.Suspicious) &&
		!s.EndInNextIteration &&
		e.model.Strength() < e.model.NumberOfParameters()
}

// suspiciousCombinations returns the sorted t-wise sub-combinations of
// failed test inputs that no passing test input contains.
func (e *Engine) suspiciousCombinations(executions []domain.TestExecution) []domain.Combination {
	strength := e.model.Strength()
	passing := make(map[domain.Key]bool)
	for _, ex := range executions {
		if ex.Result.IsSuccessful() {
			for _, sub := range combinator.SubCombinations(ex.Input, strength) {
				passing[sub.Key()] = true
			}
		}
	}

	seen := make(map[domain.Key]bool)
	var suspicious []domain.Combination
	for _, ex := range executions {
		if !ex.Result.IsFailure() {
			continue
		}
		for _, sub := range combinator.SubCombinations(ex.Input, strength) {
			key := sub.Key()
			if passing[key] || seen[key] {
				continue
			}
			seen[key] = true
			suspicious = append(suspicious, sub)
		}
	}
	sortCombinations(suspicious)
	return suspicious
}

// generate builds one test input for each of the top ranked suspicious
// combinations. exhausted reports whether some combination got none.
func (e *Engine) generate(s State) (inputs []domain.Combination, exhausted bool) {
	components := e.componentSuspiciousness(s.Executions, s.Suspicious)
	ranking := e.rank(s.Executions, components, s.Suspicious)
	valueRanking := e.valueRanking(components)
	rng := rand.New(rand.NewSource(e.config.RandomSeed + int64(s.Iteration)))

	count := min(len(ranking), e.config.NumberOfCombinationsPerStep)
	for _, c := range ranking[:count] {
		input, ok := e.newTestInput(s, c, valueRanking, rng)
		if !ok {
			exhausted = true
			continue
		}
		inputs = append(inputs, input)
	}
	return inputs, exhausted
}

// componentSuspiciousness scores every (parameter, value) pair by averaging
// its share of failed test inputs, the share of its appearances that failed
// and its share of the given suspicious combinations.
func (e *Engine) componentSuspiciousness(executions []domain.TestExecution, suspicious []domain.Combination) [][]float64 {
	sizes := e.model.ParameterSizes()
	failedAppearances := makeGrid[int](sizes)
	appearances := makeGrid[int](sizes)
	combinationAppearances := makeGrid[int](sizes)

	failed := 0
	for _, ex := range executions {
		isFailure := ex.Result.IsFailure()
		if isFailure {
			failed++
		}
		for p, v := range ex.Input {
			if v == domain.NoValue {
				continue
			}
			appearances[p][v]++
			if isFailure {
				failedAppearances[p][v]++
			}
		}
	}
	for _, c := range suspicious {
		for p, v := range c {
			if v != domain.NoValue {
				combinationAppearances[p][v]++
			}
		}
	}

	scores := makeGrid[float64](sizes)
	for p := range sizes {
		for v := 0; v < sizes[p]; v++ {
			scores[p][v] = (zeroSafeDivision(float64(failedAppearances[p][v]), float64(failed)) +
				zeroSafeDivision(float64(failedAppearances[p][v]), float64(appearances[p][v])) +
				zeroSafeDivision(float64(combinationAppearances[p][v]), float64(len(suspicious)))) / 3
		}
	}
	return scores
}

// rank orders combinations by the sum of their positions in two rankings:
// own suspiciousness descending and least suspicious environment ascending.
// Ties keep the order of combinations.
func (e *Engine) rank(executions []domain.TestExecution, components [][]float64, combinations []domain.Combination) []domain.Combination {
	own := make([]float64, len(combinations))
	environment := make([]float64, len(combinations))
	for i, c := range combinations {
		own[i] = ownAverage(components, c)
		environment[i] = minimumEnvironmentAverage(executions, components, c)
	}

	byOwn := positions(len(combinations), func(i, j int) bool { return own[i] > own[j] })
	byEnvironment := positions(len(combinations), func(i, j int) bool { return environment[i] < environment[j] })

	order := make([]int, len(combinations))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return byOwn[order[i]]+byEnvironment[order[i]] < byOwn[order[j]]+byEnvironment[order[j]]
	})

	ranked := make([]domain.Combination, len(order))
	for i, index := range order {
		ranked[i] = combinations[index]
	}
	return ranked
}

// positions stable-sorts the indices 0..n-1 with less and returns the
// position each index ended up at.
func positions(n int, less func(i, j int) bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return less(order[a], order[b]) })
	pos := make([]int, n)
	for position, index := range order {
		pos[index] = position
	}
	return pos
}

// minimumEnvironmentAverage is the lowest average suspiciousness of the
// values surrounding c in any executed test input that contains c.
func minimumEnvironmentAverage(executions []domain.TestExecution, components [][]float64, c domain.Combination) float64 {
	minimum := math.MaxFloat64
	for _, ex := range executions {
		if !ex.Input.Contains(c) {
			continue
		}
		average := environmentAverage(components, ex.Input, c)
		if average < minimum {
			minimum = average
		}
	}
	return minimum
}

func ownAverage(components [][]float64, c domain.Combination) float64 {
	sum, count := 0.0, 0
	for p, v := range c {
		if v != domain.NoValue {
			sum += components[p][v]
			count++
		}
	}
	return zeroSafeDivision(sum, float64(count))
}

// environmentAverage averages the scores of the values input assigns to the
// parameters c leaves unset.
func environmentAverage(components [][]float64, input, c domain.Combination) float64 {
	sum, count := 0.0, 0
	for p, v := range input {
		if c[p] == domain.NoValue && v != domain.NoValue {
			sum += components[p][v]
			count++
		}
	}
	return zeroSafeDivision(sum, float64(count))
}

// valueRanking lists each parameter's values from least to most suspicious.
func (e *Engine) valueRanking(components [][]float64) [][]int {
	ranking := make([][]int, len(components))
	for p, scores := range components {
		values := make([]int, len(scores))
		for v := range values {
			values[v] = v
		}
		sort.SliceStable(values, func(i, j int) bool { return scores[values[i]] < scores[values[j]] })
		ranking[p] = values
	}
	return ranking
}

// newTestInput completes c with the least suspicious values. While the
// result was already executed or violates a constraint, a randomly chosen
// environment parameter moves on to its next value in the ranking.
func (e *Engine) newTestInput(s State, c domain.Combination, valueRanking [][]int, rng *rand.Rand) (domain.Combination, bool) {
	environment := c.UnsetParameters()
	input := c.Clone()
	for _, p := range environment {
		input[p] = valueRanking[p][0]
	}

	unusable := func() bool { return s.IsTested(input) || !e.checker.IsValid(input) }
	for attempt := 0; attempt < e.config.MaxGenerationAttempts && len(environment) > 0 && unusable(); attempt++ {
		p := environment[rng.Intn(len(environment))]
		ranking := valueRanking[p]
		input[p] = ranking[(indexOf(ranking, input[p])+1)%len(ranking)]
	}
	if unusable() {
		return nil, false
	}
	return input, true
}

// FailureInducingCombinations reduces the suspicious set of s down to single
// values and returns every level's ranking, smallest combinations first.
func (e *Engine) FailureInducingCombinations(s State) []domain.Combination {
	sizes := e.model.ParameterSizes()
	levels := [][]domain.Combination{s.Suspicious}
	for arity := e.model.Strength() - 1; arity > 0; arity-- {
		levels = append([][]domain.Combination{Reduce(sizes, levels[0])}, levels...)
	}

	var result []domain.Combination
	for _, level := range levels {
		if len(level) == 0 {
			continue
		}
		components := e.componentSuspiciousness(s.Executions, level)
		for _, c := range e.rank(s.Executions, components, level) {
			result = append(result, c.Clone())
		}
	}
	return result
}

func makeGrid[T int | float64](sizes []int) [][]T {
	grid := make([][]T, len(sizes))
	for p, size := range sizes {
		grid[p] = make([]T, size)
	}
	return grid
}

func zeroSafeDivision(value, divisor float64) float64 {
	if divisor == 0 {
		return 0
	}
	return value / divisor
}

func indexOf(values []int, value int) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}

// Ben runs an Engine as a characterization.Algorithm, keeping the state
// between rounds.
type Ben struct {
	engine *Engine
	state  State
}

// New returns a BEN algorithm for a test group.
func New(engine *Engine) *Ben {
	return &Ben{engine: engine}
}

func (b *Ben) NextTestInputs(executions []domain.TestExecution) []domain.Combination {
	var inputs []domain.Combination
	b.state, inputs = b.engine.Step(b.state, executions)
	return inputs
}

func (b *Ben) FailureInducingCombinations() []domain.Combination {
	return b.engine.FailureInducingCombinations(b.state)
}

// State returns the current state.
func (b *Ben) State() State {
	return b.state
}

// Factory creates BEN algorithms sharing one configuration.
type Factory struct {
	config domain.CharacterizationConfig
}

// NewFactory validates config and returns a factory.
func NewFactory(config domain.CharacterizationConfig) (*Factory, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Factory{config: config}, nil
}

func (f *Factory) Name() string { return Name }

func (f *Factory) Create(config characterization.Configuration) characterization.Algorithm {
	checker := config.Checker
	if checker == nil {
		checker = constraint.NewModelChecker(config.Model)
	}
	return New(&Engine{model: config.Model, checker: checker, config: f.config})
}
