package domain

import (
	"errors"
	"testing"
)

func TestCombinationKeyRoundTrip(t *testing.T) {
	tests := []Combination{
		{},
		{NoValue},
		{0, 1, NoValue, 300},
		{NoValue, NoValue, 2},
	}
	for _, c := range tests {
		got := c.Key().Combination()
		if len(c) == 0 && len(got) == 0 {
			continue
		}
		if !got.Equal(c) {
			t.Errorf("Key().Combination() = %v, want %v", got, c)
		}
	}

	if (Combination{0, 1}).Key() == (Combination{1, 0}).Key() {
		t.Error("different combinations share a key")
	}
}

func TestCombinationContainsAndCompatible(t *testing.T) {
	full := Combination{0, 1, 2}
	if !full.Contains(Combination{NoValue, 1, NoValue}) {
		t.Error("expected full to contain [-, 1, -]")
	}
	if full.Contains(Combination{NoValue, 0, NoValue}) {
		t.Error("expected full not to contain [-, 0, -]")
	}

	a := Combination{0, NoValue, NoValue}
	b := Combination{NoValue, 1, NoValue}
	if !a.IsCompatible(b) {
		t.Error("expected disjoint combinations to be compatible")
	}
	if a.IsCompatible(Combination{1, NoValue, NoValue}) {
		t.Error("expected conflicting combinations to be incompatible")
	}

	merged := a.Merged(b)
	if !merged.Equal(Combination{0, 1, NoValue}) {
		t.Errorf("Merged = %v", merged)
	}
	if a[1] != NoValue {
		t.Error("Merged modified its receiver")
	}
}

func TestCombinationContainsPanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Combination{0}.Contains(Combination{0, 1})
}

func TestNewTestModelValidation(t *testing.T) {
	tests := []struct {
		name      string
		strength  int
		sizes     []int
		forbidden []TupleList
		errs      []TupleList
		wantErr   bool
	}{
		{name: "valid", strength: 2, sizes: []int{2, 3}},
		{name: "strength zero", strength: 0, sizes: []int{2}},
		{name: "single value parameter", strength: 1, sizes: []int{1, 2}},
		{name: "negative strength", strength: -1, sizes: []int{2}, wantErr: true},
		{name: "strength too high", strength: 3, sizes: []int{2, 2}, wantErr: true},
		{name: "empty domain", strength: 1, sizes: []int{2, 0}, wantErr: true},
		{
			name: "unknown parameter", strength: 1, sizes: []int{2, 2},
			forbidden: []TupleList{{ID: 1, Parameters: []int{2}, Tuples: [][]int{{0}}}},
			wantErr:   true,
		},
		{
			name: "value out of range", strength: 1, sizes: []int{2, 2},
			forbidden: []TupleList{{ID: 1, Parameters: []int{0}, Tuples: [][]int{{2}}}},
			wantErr:   true,
		},
		{
			name: "tuple length mismatch", strength: 1, sizes: []int{2, 2},
			forbidden: []TupleList{{ID: 1, Parameters: []int{0, 1}, Tuples: [][]int{{0}}}},
			wantErr:   true,
		},
		{
			name: "duplicate id across lists", strength: 1, sizes: []int{2, 2},
			forbidden: []TupleList{{ID: 1, Parameters: []int{0}, Tuples: [][]int{{0}}}},
			errs:      []TupleList{{ID: 1, Parameters: []int{1}, Tuples: [][]int{{0}}}},
			wantErr:   true,
		},
		{
			name: "zero id", strength: 1, sizes: []int{2, 2},
			errs:    []TupleList{{ID: 0, Parameters: []int{1}, Tuples: [][]int{{0}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTestModel(tt.strength, tt.sizes, tt.forbidden, tt.errs)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidModel) {
					t.Errorf("err = %v, want ErrInvalidModel", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTestModelIsImmutable(t *testing.T) {
	sizes := []int{2, 2}
	m := MustNewTestModel(1, sizes, nil, nil)
	sizes[0] = 10
	if m.ParameterSize(0) != 2 {
		t.Error("model shares the caller's slice")
	}
	got := m.ParameterSizes()
	got[1] = 10
	if m.ParameterSize(1) != 2 {
		t.Error("ParameterSizes exposes internal state")
	}
}

func TestFingerprint(t *testing.T) {
	a := MustNewTestModel(2, []int{2, 3}, nil, nil)
	b := MustNewTestModel(1, []int{2, 3}, nil, nil)
	c := MustNewTestModel(2, []int{3, 2}, nil, nil)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("strength should not change the fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different sizes must change the fingerprint")
	}
}

func TestCharacterizationConfig(t *testing.T) {
	cfg := CharacterizationConfig{}.WithDefaults()
	if cfg.NumberOfCombinationsPerStep != 10 || cfg.MaxGenerationAttempts != 50 {
		t.Errorf("WithDefaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bad := CharacterizationConfig{NumberOfCombinationsPerStep: -1, MaxGenerationAttempts: 1}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate = %v, want ErrInvalidConfig", err)
	}
}

func TestTestResult(t *testing.T) {
	if !Success().IsSuccessful() || Success().IsFailure() {
		t.Error("Success misbehaves")
	}
	f := Failure("boom")
	if f.IsSuccessful() || !f.IsFailure() || f.Cause != "boom" {
		t.Errorf("Failure = %+v", f)
	}
	if f.Outcome.String() != "FAIL" {
		t.Errorf("String = %s", f.Outcome)
	}
}
