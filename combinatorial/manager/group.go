package manager

import (
	"github.com/example/combitest/combinatorial/characterization"
	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/report"
)

// groupManager follows one test input group through its rounds: the
// initial inputs, then any rounds requested by fault characterization.
type groupManager struct {
	group    *generator.TestInputGroup
	factory  characterization.Factory
	reporter report.Reporter

	algorithm characterization.Algorithm
	missing   map[domain.Key]struct{}
	round     []domain.TestExecution
	finished  bool
}

func newGroupManager(group *generator.TestInputGroup, factory characterization.Factory, reporter report.Reporter) *groupManager {
	g := &groupManager{group: group, factory: factory, reporter: reporter}
	g.await(group.TestInputs)
	return g
}

func (g *groupManager) await(inputs []domain.Combination) {
	g.missing = make(map[domain.Key]struct{}, len(inputs))
	for _, input := range inputs {
		g.missing[input.Key()] = struct{}{}
	}
}

func (g *groupManager) finish() {
	g.finished = true
	g.reporter.GroupFinished(g.group)
}

// record returns the next round's inputs once the current round is complete.
func (g *groupManager) record(input domain.Combination, result domain.TestResult) []domain.Combination {
	key := input.Key()
	if _, ok := g.missing[key]; !ok {
		return nil
	}
	delete(g.missing, key)
	g.round = append(g.round, domain.TestExecution{Input: input.Clone(), Result: result})
	if len(g.missing) > 0 {
		return nil
	}

	round := g.round
	g.round = nil
	if g.algorithm == nil {
		if !g.shouldCharacterize(round) {
			g.finish()
			return nil
		}
		g.algorithm = g.factory.Create(*g.group.Characterization)
		g.reporter.CharacterizationStarted(g.group, g.factory.Name())
	}

	next := g.algorithm.NextTestInputs(round)
	if len(next) == 0 {
		g.reporter.CharacterizationFinished(g.group, g.algorithm.FailureInducingCombinations())
		g.finish()
		return nil
	}
	g.reporter.TestInputsGenerated(g.group, next)
	g.await(next)
	return next
}

func (g *groupManager) shouldCharacterize(round []domain.TestExecution) bool {
	if g.factory == nil || g.group.Characterization == nil {
		return false
	}
	for _, e := range round {
		if e.Result.IsFailure() {
			return true
		}
	}
	return false
}
