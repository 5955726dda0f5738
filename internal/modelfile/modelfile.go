// Package modelfile reads test models from YAML files. Parameters and values
// are referenced by name in the file and by index everywhere else.
package modelfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
)

// DefaultStrength is used when a model file does not set one.
const DefaultStrength = 2

// Model is the content of a model file.
type Model struct {
	// Strength is the interaction strength. Nil means DefaultStrength,
	// capped at the number of parameters.
	Strength         *int             `yaml:"strength"`
	Parameters       []Parameter      `yaml:"parameters"`
	Constraints      Constraints      `yaml:"constraints"`
	Characterization Characterization `yaml:"characterization"`
}

// Parameter is a named parameter with named values.
type Parameter struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Constraints groups the tuple lists of a model.
type Constraints struct {
	Forbidden []TupleList `yaml:"forbidden"`
	Errors    []TupleList `yaml:"errors"`

	// Allowed lists the only value tuples its parameters may take together.
	// Every other tuple of those parameters is forbidden.
	Allowed []TupleList `yaml:"allowed"`
}

// TupleList references parameters and values by name.
type TupleList struct {
	Parameters []string   `yaml:"parameters"`
	Tuples     [][]string `yaml:"tuples"`
}

// Characterization configures fault characterization for the model.
type Characterization struct {
	// Enabled defaults to true.
	Enabled               *bool `yaml:"enabled"`
	CombinationsPerStep   int   `yaml:"combinations_per_step"`
	MaxGenerationAttempts int   `yaml:"max_generation_attempts"`
	Seed                  int64 `yaml:"seed"`
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("model.json", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("model.json")
})

// Load reads and validates the model file at path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse validates data against Schema and the naming rules and decodes it.
func Parse(data []byte) (*Model, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func validateSchema(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("failed to compile model schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	// Round trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	return nil
}

func (m *Model) validate() error {
	names := make(map[string]bool)
	for _, p := range m.Parameters {
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate parameter name %q", domain.ErrInvalidModel, p.Name)
		}
		names[p.Name] = true
		values := make(map[string]bool)
		for _, v := range p.Values {
			if values[v] {
				return fmt.Errorf("%w: duplicate value %q of parameter %q", domain.ErrInvalidModel, v, p.Name)
			}
			values[v] = true
		}
	}
	if m.Strength != nil && *m.Strength > len(m.Parameters) {
		return fmt.Errorf("%w: strength %d exceeds the %d parameters",
			domain.ErrInvalidModel, *m.Strength, len(m.Parameters))
	}
	for _, lists := range [][]TupleList{m.Constraints.Forbidden, m.Constraints.Errors, m.Constraints.Allowed} {
		for _, l := range lists {
			if _, err := m.convertTupleList(0, l); err != nil {
				return err
			}
		}
	}
	return nil
}

// StrengthOrDefault returns the configured strength.
func (m *Model) StrengthOrDefault() int {
	if m.Strength != nil {
		return *m.Strength
	}
	return min(DefaultStrength, len(m.Parameters))
}

// ParameterIndex returns the index of the named parameter.
func (m *Model) ParameterIndex(name string) (int, bool) {
	for i, p := range m.Parameters {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ValueIndex returns the index of a named value of parameter p.
func (m *Model) ValueIndex(p int, value string) (int, bool) {
	for i, v := range m.Parameters[p].Values {
		if v == value {
			return i, true
		}
	}
	return 0, false
}

func (m *Model) convertTupleList(id int, l TupleList) (domain.TupleList, error) {
	out := domain.TupleList{ID: id}
	for _, name := range l.Parameters {
		p, ok := m.ParameterIndex(name)
		if !ok {
			return out, fmt.Errorf("%w: constraint references unknown parameter %q", domain.ErrInvalidModel, name)
		}
		out.Parameters = append(out.Parameters, p)
	}
	for _, tuple := range l.Tuples {
		if len(tuple) != len(out.Parameters) {
			return out, fmt.Errorf("%w: tuple %v needs %d values", domain.ErrInvalidModel, tuple, len(out.Parameters))
		}
		values := make([]int, len(tuple))
		for i, name := range tuple {
			v, ok := m.ValueIndex(out.Parameters[i], name)
			if !ok {
				return out, fmt.Errorf("%w: parameter %q has no value %q",
					domain.ErrInvalidModel, l.Parameters[i], name)
			}
			values[i] = v
		}
		out.Tuples = append(out.Tuples, values)
	}
	return out, nil
}

// TestModel converts the file into a domain model. Tuple lists are numbered
// from 1: forbidden lists, then error lists, then allowed lists, which
// become forbidden lists of their complement.
func (m *Model) TestModel() (*domain.TestModel, error) {
	sizes := make([]int, len(m.Parameters))
	for i, p := range m.Parameters {
		sizes[i] = len(p.Values)
	}
	id := 0
	convert := func(lists []TupleList) ([]domain.TupleList, error) {
		var out []domain.TupleList
		for _, l := range lists {
			id++
			converted, err := m.convertTupleList(id, l)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	forbidden, err := convert(m.Constraints.Forbidden)
	if err != nil {
		return nil, err
	}
	errorTuples, err := convert(m.Constraints.Errors)
	if err != nil {
		return nil, err
	}
	for _, l := range m.Constraints.Allowed {
		id++
		complement, err := m.complement(id, l, sizes)
		if err != nil {
			return nil, err
		}
		if complement != nil {
			forbidden = append(forbidden, *complement)
		}
	}
	return domain.NewTestModel(m.StrengthOrDefault(), sizes, forbidden, errorTuples)
}

// complement returns the tuples of l's parameters that l does not list, nil
// if l lists them all.
func (m *Model) complement(id int, l TupleList, sizes []int) (*domain.TupleList, error) {
	converted, err := m.convertTupleList(id, l)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(converted.Tuples))
	for _, tuple := range converted.Tuples {
		allowed[fmt.Sprint(tuple)] = true
	}
	return constraint.TupleListFromFunc(id, converted.Parameters, sizes, func(values []int) bool {
		return allowed[fmt.Sprint(values)]
	})
}

// CharacterizationConfig returns the fault characterization settings and
// whether characterization is enabled.
func (m *Model) CharacterizationConfig() (domain.CharacterizationConfig, bool) {
	c := m.Characterization
	enabled := c.Enabled == nil || *c.Enabled
	return domain.CharacterizationConfig{
		NumberOfCombinationsPerStep: c.CombinationsPerStep,
		MaxGenerationAttempts:       c.MaxGenerationAttempts,
		RandomSeed:                  c.Seed,
	}.WithDefaults(), enabled
}

// ParameterNames returns the parameter names in index order.
func (m *Model) ParameterNames() []string {
	names := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		names[i] = p.Name
	}
	return names
}

// Values returns the value names of c, "-" for unset parameters.
func (m *Model) Values(c domain.Combination) []string {
	values := make([]string, len(c))
	for p, v := range c {
		if v == domain.NoValue {
			values[p] = "-"
		} else {
			values[p] = m.Parameters[p].Values[v]
		}
	}
	return values
}

// FormatAssignment renders the set values of c as "name=value" pairs.
func (m *Model) FormatAssignment(c domain.Combination) string {
	var parts []string
	for p, v := range c {
		if v != domain.NoValue {
			parts = append(parts, m.Parameters[p].Name+"="+m.Parameters[p].Values[v])
		}
	}
	return strings.Join(parts, ", ")
}

// ParseAssignment parses "name=value" pairs separated by commas into a
// combination. Parameters not mentioned stay unset.
func (m *Model) ParseAssignment(s string) (domain.Combination, error) {
	c := domain.NewCombination(len(m.Parameters))
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected name=value, got %q", domain.ErrInvalidCombination, part)
		}
		p, ok := m.ParameterIndex(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", domain.ErrInvalidCombination, name)
		}
		v, ok := m.ValueIndex(p, strings.TrimSpace(value))
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q has no value %q", domain.ErrInvalidCombination, name, value)
		}
		if c[p] != domain.NoValue && c[p] != v {
			return nil, fmt.Errorf("%w: parameter %q assigned twice", domain.ErrInvalidCombination, name)
		}
		c[p] = v
	}
	return c, nil
}
