package constraint

import (
	"fmt"

	"github.com/example/combitest/combinatorial/combinator"
	"github.com/example/combitest/combinatorial/domain"
)

// Func is a constraint over a fixed list of parameters. It receives one value
// per involved parameter, in the order they were registered, and reports
// whether that assignment is allowed.
type Func func(values []int) bool

// TupleListFromFunc enumerates the value space of params and returns the
// assignments rejected by fn as a tuple list. The arity of fn is fixed by
// params here, once, so fn never sees a slice of another length.
//
// It returns a nil list and no error if fn rejects nothing.
func TupleListFromFunc(id int, params []int, sizes []int, fn Func) (*domain.TupleList, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: constraint %d has no parameters", domain.ErrInvalidModel, id)
	}
	seen := make(map[int]bool)
	for _, p := range params {
		if p < 0 || p >= len(sizes) {
			return nil, fmt.Errorf("%w: constraint %d references unknown parameter %d",
				domain.ErrInvalidModel, id, p)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: constraint %d references parameter %d twice",
				domain.ErrInvalidModel, id, p)
		}
		seen[p] = true
	}

	list := domain.TupleList{ID: id, Parameters: append([]int(nil), params...)}
	values := make([]int, len(params))
	for _, c := range combinator.CartesianProduct(params, sizes, len(sizes)) {
		for i, p := range params {
			values[i] = c[p]
		}
		if !fn(values) {
			list.Tuples = append(list.Tuples, append([]int(nil), values...))
		}
	}
	if len(list.Tuples) == 0 {
		return nil, nil
	}
	return &list, nil
}
