package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TupleList is a set of value tuples over a fixed list of parameters.
// Depending on where it is registered it describes forbidden tuples (the
// tuples must never appear in a test input) or error tuples (the tuples are
// expected to make the system under test fail).
type TupleList struct {
	// ID identifies the list inside its model. Must be positive and unique.
	ID int

	// Parameters are the involved parameter indices.
	Parameters []int

	// Tuples hold one value per involved parameter, in Parameters order.
	Tuples [][]int
}

// Matches reports whether c assigns exactly the values of the tuple at index i
// to the involved parameters.
func (l TupleList) Matches(c Combination, i int) bool {
	for j, p := range l.Parameters {
		if c[p] != l.Tuples[i][j] {
			return false
		}
	}
	return true
}

// Combination returns the tuple at index i as a combination of n parameters.
func (l TupleList) Combination(n, i int) Combination {
	c := NewCombination(n)
	for j, p := range l.Parameters {
		c[p] = l.Tuples[i][j]
	}
	return c
}

// TestModel describes the input space of a system under test: the parameters
// and their domain sizes, the testing strength and the constraints.
// Build it with NewTestModel; it is immutable afterwards.
type TestModel struct {
	strength       int
	parameterSizes []int
	forbidden      []TupleList
	errors         []TupleList
}

// NewTestModel validates the arguments and returns a model.
//
// Every parameter needs at least one value, the strength must be between 0
// and the number of parameters, and every tuple list must reference existing
// parameters and values. Tuple list IDs must be unique over both lists.
func NewTestModel(strength int, parameterSizes []int, forbidden, errorTuples []TupleList) (*TestModel, error) {
	n := len(parameterSizes)
	if strength < 0 || strength > n {
		return nil, fmt.Errorf("%w: strength must be between 0 and %d, got %d",
			ErrInvalidModel, n, strength)
	}
	for p, size := range parameterSizes {
		if size < 1 {
			return nil, fmt.Errorf("%w: parameter %d must have at least one value, got %d",
				ErrInvalidModel, p, size)
		}
	}

	ids := make(map[int]bool)
	for _, lists := range [][]TupleList{forbidden, errorTuples} {
		for _, list := range lists {
			if ids[list.ID] {
				return nil, fmt.Errorf("%w: duplicate tuple list id %d", ErrInvalidModel, list.ID)
			}
			ids[list.ID] = true
			if err := validateTupleList(list, parameterSizes); err != nil {
				return nil, err
			}
		}
	}

	return &TestModel{
		strength:       strength,
		parameterSizes: append([]int(nil), parameterSizes...),
		forbidden:      cloneTupleLists(forbidden),
		errors:         cloneTupleLists(errorTuples),
	}, nil
}

// MustNewTestModel is like NewTestModel but panics on an invalid model.
func MustNewTestModel(strength int, parameterSizes []int, forbidden, errorTuples []TupleList) *TestModel {
	m, err := NewTestModel(strength, parameterSizes, forbidden, errorTuples)
	if err != nil {
		panic(err)
	}
	return m
}

func validateTupleList(list TupleList, sizes []int) error {
	if list.ID <= 0 {
		return fmt.Errorf("%w: tuple list id must be positive, got %d", ErrInvalidModel, list.ID)
	}
	if len(list.Parameters) == 0 {
		return fmt.Errorf("%w: tuple list %d has no parameters", ErrInvalidModel, list.ID)
	}
	if len(list.Tuples) == 0 {
		return fmt.Errorf("%w: tuple list %d has no tuples", ErrInvalidModel, list.ID)
	}
	seen := make(map[int]bool)
	for _, p := range list.Parameters {
		if p < 0 || p >= len(sizes) {
			return fmt.Errorf("%w: tuple list %d references unknown parameter %d",
				ErrInvalidModel, list.ID, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: tuple list %d references parameter %d twice",
				ErrInvalidModel, list.ID, p)
		}
		seen[p] = true
	}
	for i, tuple := range list.Tuples {
		if len(tuple) != len(list.Parameters) {
			return fmt.Errorf("%w: tuple %d of list %d has %d values for %d parameters",
				ErrInvalidModel, i, list.ID, len(tuple), len(list.Parameters))
		}
		for j, v := range tuple {
			p := list.Parameters[j]
			if v < 0 || v >= sizes[p] {
				return fmt.Errorf("%w: tuple %d of list %d uses value %d outside parameter %d",
					ErrInvalidModel, i, list.ID, v, p)
			}
		}
	}
	return nil
}

func cloneTupleLists(lists []TupleList) []TupleList {
	out := make([]TupleList, len(lists))
	for i, l := range lists {
		tuples := make([][]int, len(l.Tuples))
		for j, t := range l.Tuples {
			tuples[j] = append([]int(nil), t...)
		}
		out[i] = TupleList{ID: l.ID, Parameters: append([]int(nil), l.Parameters...), Tuples: tuples}
	}
	return out
}

// Strength is the interaction strength t.
func (m *TestModel) Strength() int { return m.strength }

// NumberOfParameters is the number of parameters n.
func (m *TestModel) NumberOfParameters() int { return len(m.parameterSizes) }

// ParameterSizes returns a copy of the domain sizes.
func (m *TestModel) ParameterSizes() []int { return append([]int(nil), m.parameterSizes...) }

// ParameterSize returns the domain size of parameter p.
func (m *TestModel) ParameterSize(p int) int { return m.parameterSizes[p] }

// ForbiddenTupleLists returns the hard constraints.
func (m *TestModel) ForbiddenTupleLists() []TupleList { return cloneTupleLists(m.forbidden) }

// ErrorTupleLists returns the expected-failure tuples.
func (m *TestModel) ErrorTupleLists() []TupleList { return cloneTupleLists(m.errors) }

// WithStrength returns a copy of the model using another strength.
func (m *TestModel) WithStrength(strength int) (*TestModel, error) {
	return NewTestModel(strength, m.parameterSizes, m.forbidden, m.errors)
}

// CheckCombination returns an error unless c fits the model's shape and domains.
func (m *TestModel) CheckCombination(c Combination) error {
	if len(c) != len(m.parameterSizes) {
		return fmt.Errorf("%w: expected %d parameters, got %d",
			ErrInvalidCombination, len(m.parameterSizes), len(c))
	}
	for p, v := range c {
		if v != NoValue && (v < 0 || v >= m.parameterSizes[p]) {
			return fmt.Errorf("%w: value %d out of range for parameter %d",
				ErrInvalidCombination, v, p)
		}
	}
	return nil
}

// Fingerprint identifies the model's structure. Models with the same
// fingerprint interpret combinations the same way, so stored results can be
// shared between them.
func (m *TestModel) Fingerprint() string {
	var b strings.Builder
	b.WriteString("sizes:")
	for _, s := range m.parameterSizes {
		b.WriteString(strconv.Itoa(s))
		b.WriteByte(',')
	}
	writeLists := func(name string, lists []TupleList) {
		sorted := append([]TupleList(nil), lists...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		b.WriteString(name)
		for _, l := range sorted {
			fmt.Fprintf(&b, "%d%v%v;", l.ID, l.Parameters, l.Tuples)
		}
	}
	writeLists("|forbidden:", m.forbidden)
	writeLists("|errors:", m.errors)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
