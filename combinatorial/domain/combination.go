package domain

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// NoValue marks a parameter of a combination that has no value assigned.
const NoValue = -1

// Combination assigns a value index (or NoValue) to every parameter of a model.
// The slice is a working copy; use Key for equality and as a map key.
type Combination []int

// Key is the comparable value form of a Combination.
type Key string

// NewCombination returns a combination of n parameters with no values set.
func NewCombination(n int) Combination {
	c := make(Combination, n)
	for i := range c {
		c[i] = NoValue
	}
	return c
}

// Clone returns an independent copy of c.
func (c Combination) Clone() Combination {
	return append(Combination(nil), c...)
}

// Key encodes c so that two combinations have the same key iff they are equal.
func (c Combination) Key() Key {
	buf := make([]byte, 0, len(c)*2)
	for _, v := range c {
		buf = binary.AppendVarint(buf, int64(v))
	}
	return Key(buf)
}

// Combination decodes the key back into a fresh combination.
func (k Key) Combination() Combination {
	buf := []byte(k)
	var c Combination
	for len(buf) > 0 {
		v, n := binary.Varint(buf)
		if n <= 0 {
			panic(fmt.Sprintf("domain: corrupt combination key %q", string(k)))
		}
		c = append(c, int(v))
		buf = buf[n:]
	}
	return c
}

// Equal reports whether c and other assign the same values.
func (c Combination) Equal(other Combination) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare orders combinations lexicographically, NoValue first.
func (c Combination) Compare(other Combination) int {
	for i := 0; i < len(c) && i < len(other); i++ {
		if c[i] != other[i] {
			if c[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return len(c) - len(other)
}

// NumberOfSetParameters counts the parameters with a value.
func (c Combination) NumberOfSetParameters() int {
	count := 0
	for _, v := range c {
		if v != NoValue {
			count++
		}
	}
	return count
}

// IsComplete reports whether every parameter has a value.
func (c Combination) IsComplete() bool {
	for _, v := range c {
		if v == NoValue {
			return false
		}
	}
	return true
}

// SetParameters returns the indices of all parameters with a value.
func (c Combination) SetParameters() []int {
	params := make([]int, 0, len(c))
	for i, v := range c {
		if v != NoValue {
			params = append(params, i)
		}
	}
	return params
}

// UnsetParameters returns the indices of all parameters without a value.
func (c Combination) UnsetParameters() []int {
	params := make([]int, 0, len(c))
	for i, v := range c {
		if v == NoValue {
			params = append(params, i)
		}
	}
	return params
}

// ContainsAllParameters reports whether every listed parameter has a value.
func (c Combination) ContainsAllParameters(params []int) bool {
	for _, p := range params {
		if c[p] == NoValue {
			return false
		}
	}
	return true
}

// Contains reports whether c agrees with every set value of sub.
// It panics if the lengths differ.
func (c Combination) Contains(sub Combination) bool {
	mustHaveSameLength(c, sub)
	for i, v := range sub {
		if v != NoValue && c[i] != v {
			return false
		}
	}
	return true
}

// IsCompatible reports whether c and other never assign different values to
// the same parameter.
func (c Combination) IsCompatible(other Combination) bool {
	mustHaveSameLength(c, other)
	for i, v := range other {
		if v != NoValue && c[i] != NoValue && c[i] != v {
			return false
		}
	}
	return true
}

// Merge copies every set value of other into c.
func (c Combination) Merge(other Combination) {
	mustHaveSameLength(c, other)
	for i, v := range other {
		if v != NoValue {
			c[i] = v
		}
	}
}

// Merged returns a new combination holding the values of both c and other.
func (c Combination) Merged(other Combination) Combination {
	merged := c.Clone()
	merged.Merge(other)
	return merged
}

// String renders c like "[0, 1, -, 2]".
func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		if v == NoValue {
			parts[i] = "-"
		} else {
			parts[i] = strconv.Itoa(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func mustHaveSameLength(a, b Combination) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("domain: combinations of different length %d and %d", len(a), len(b)))
	}
}
