package ipog

import (
	"github.com/example/combitest/combinatorial/constraint"
	"github.com/example/combitest/combinatorial/domain"
)

// Partitioner groups test inputs by their value of one parameter, so that
// vertical extension only inspects inputs that can take a combination.
// Buckets keep insertion order.
type Partitioner struct {
	inputs    []domain.Combination
	parameter int
	// buckets[0] holds inputs without a value, buckets[v+1] those with value v.
	buckets [][]int
}

// NewPartitioner partitions inputs by parameter. The partitioner takes
// ownership of inputs and modifies them in place.
func NewPartitioner(inputs []domain.Combination, parameter, size int) *Partitioner {
	p := &Partitioner{
		parameter: parameter,
		buckets:   make([][]int, size+1),
	}
	for _, c := range inputs {
		p.Add(c)
	}
	return p
}

// Add appends c and returns its index.
func (p *Partitioner) Add(c domain.Combination) int {
	index := len(p.inputs)
	p.inputs = append(p.inputs, c)
	b := c[p.parameter] + 1
	p.buckets[b] = append(p.buckets[b], index)
	return index
}

// Inputs returns all inputs in insertion order.
func (p *Partitioner) Inputs() []domain.Combination {
	return p.inputs
}

// ExtendSuitableCombination merges c into the first input that agrees with
// it and stays valid, looking at inputs with the same value of the
// partitioning parameter before inputs without a value. It returns the index
// of the extended input.
func (p *Partitioner) ExtendSuitableCombination(c domain.Combination, checker constraint.Checker) (int, bool) {
	value := c[p.parameter]
	if index, ok := p.extendInBucket(value+1, c, checker); ok {
		return index, true
	}
	if value == domain.NoValue {
		return 0, false
	}
	index, ok := p.extendInBucket(0, c, checker)
	if !ok {
		return 0, false
	}
	p.move(index, 0, value+1)
	return index, true
}

func (p *Partitioner) extendInBucket(bucket int, c domain.Combination, checker constraint.Checker) (int, bool) {
	for _, index := range p.buckets[bucket] {
		input := p.inputs[index]
		if !input.IsCompatible(c) {
			continue
		}
		if merged := input.Merged(c); checker.IsValid(merged) {
			copy(input, merged)
			return index, true
		}
	}
	return 0, false
}

func (p *Partitioner) move(index, from, to int) {
	bucket := p.buckets[from]
	for i, candidate := range bucket {
		if candidate == index {
			p.buckets[from] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	p.buckets[to] = insertSorted(p.buckets[to], index)
}

func insertSorted(bucket []int, index int) []int {
	i := len(bucket)
	for i > 0 && bucket[i-1] > index {
		i--
	}
	bucket = append(bucket, 0)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = index
	return bucket
}
