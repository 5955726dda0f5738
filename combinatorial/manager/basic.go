package manager

import (
	"context"
	"fmt"

	"github.com/example/combitest/combinatorial/characterization"
	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/generator"
	"github.com/example/combitest/combinatorial/report"
)

// Configuration describes a session.
type Configuration struct {
	// Generators produce the initial test input groups.
	// Default: generator.Positive only.
	Generators []generator.Generator

	// Characterization creates the fault characterization algorithm of a
	// group. Nil disables fault characterization.
	Characterization characterization.Factory

	// Reporter observes the session. Default: report.NoOp.
	Reporter report.Reporter
}

// Basic is the Manager of one session. It is not safe for concurrent use;
// wrap it in Caching for that.
type Basic struct {
	model  *domain.TestModel
	config Configuration
	groups []*groupManager
}

// NewBasic returns a manager for model.
func NewBasic(model *domain.TestModel, config Configuration) (*Basic, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: manager needs a model", domain.ErrInvalidConfig)
	}
	if len(config.Generators) == 0 {
		config.Generators = []generator.Generator{generator.Positive{}}
	}
	if config.Reporter == nil {
		config.Reporter = report.NoOp{}
	}
	return &Basic{model: model, config: config}, nil
}

// GenerateInitialTests runs every generator and returns all test inputs.
// Calling it again starts the session over.
func (m *Basic) GenerateInitialTests(ctx context.Context) ([]domain.Combination, error) {
	m.groups = nil
	var inputs []domain.Combination
	for _, gen := range m.config.Generators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		groups, err := gen.Generate(m.model)
		if err != nil {
			return nil, fmt.Errorf("failed to generate test inputs: %w", err)
		}
		for _, group := range groups {
			g := newGroupManager(group, m.config.Characterization, m.config.Reporter)
			m.groups = append(m.groups, g)
			m.config.Reporter.GroupGenerated(group)
			if len(group.TestInputs) == 0 {
				g.finish()
				continue
			}
			for _, input := range group.TestInputs {
				inputs = append(inputs, input.Clone())
			}
		}
	}
	return inputs, nil
}

// GenerateAdditionalTestInputsWithResult hands the result to every group
// waiting for it.
func (m *Basic) GenerateAdditionalTestInputsWithResult(ctx context.Context, input domain.Combination, result domain.TestResult) ([]domain.Combination, error) {
	if err := m.model.CheckCombination(input); err != nil {
		return nil, err
	}
	var next []domain.Combination
	for _, g := range m.groups {
		if g.finished {
			continue
		}
		for _, c := range g.record(input, result) {
			next = append(next, c.Clone())
		}
	}
	return next, nil
}

// IsFinished reports whether every group is done.
func (m *Basic) IsFinished() bool {
	for _, g := range m.groups {
		if !g.finished {
			return false
		}
	}
	return true
}
