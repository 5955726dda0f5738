package ipog

// ParameterOrder decides in which order IPOG processes the parameters.
type ParameterOrder interface {
	// InitialParameters are combined exhaustively into the seed test inputs.
	InitialParameters(sizes []int, strength int) []int

	// RemainingParameters are added one at a time, in the returned order.
	RemainingParameters(sizes []int, strength int) []int
}

// StrengthBasedOrder seeds with the first strength parameters and extends
// by the rest in index order.
type StrengthBasedOrder struct{}

func (StrengthBasedOrder) InitialParameters(sizes []int, strength int) []int {
	return indexRange(0, min(strength, len(sizes)))
}

func (StrengthBasedOrder) RemainingParameters(sizes []int, strength int) []int {
	return indexRange(min(strength, len(sizes)), len(sizes))
}

// NegativityAwareOrder moves the parameters of an error tuple list to the
// front, so seeds already contain the tuples every input must carry.
type NegativityAwareOrder struct {
	Parameters []int
}

func (o NegativityAwareOrder) order(n int) []int {
	ordered := make([]int, 0, n)
	seen := make([]bool, n)
	for _, p := range o.Parameters {
		if p >= 0 && p < n && !seen[p] {
			seen[p] = true
			ordered = append(ordered, p)
		}
	}
	for p := 0; p < n; p++ {
		if !seen[p] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func (o NegativityAwareOrder) InitialParameters(sizes []int, strength int) []int {
	return o.order(len(sizes))[:min(strength, len(sizes))]
}

func (o NegativityAwareOrder) RemainingParameters(sizes []int, strength int) []int {
	return o.order(len(sizes))[min(strength, len(sizes)):]
}

func indexRange(from, to int) []int {
	r := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		r = append(r, i)
	}
	return r
}
