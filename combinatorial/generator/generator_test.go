package generator

import (
	"testing"

	"github.com/example/combitest/combinatorial/domain"
)

func TestPositiveAvoidsErrorTuples(t *testing.T) {
	model := domain.MustNewTestModel(2, []int{2, 2, 2, 2},
		[]domain.TupleList{{ID: 1, Parameters: []int{0, 1}, Tuples: [][]int{{1, 1}}}},
		[]domain.TupleList{{ID: 2, Parameters: []int{2}, Tuples: [][]int{{0}}}},
	)
	groups, err := Positive{}.Generate(model)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	group := groups[0]
	if group.ID != "positive" || group.Characterization == nil {
		t.Errorf("group = %+v", group)
	}
	if len(group.TestInputs) == 0 {
		t.Fatal("expected test inputs")
	}
	for _, input := range group.TestInputs {
		if input[0] == 1 && input[1] == 1 {
			t.Errorf("input %v contains the forbidden tuple", input)
		}
		if input[2] == 0 {
			t.Errorf("input %v contains the error tuple", input)
		}
	}
}

func TestNegativeContainsOwnErrorTupleOnly(t *testing.T) {
	model := domain.MustNewTestModel(2, []int{2, 2, 2, 2}, nil, []domain.TupleList{
		{ID: 1, Parameters: []int{0, 1}, Tuples: [][]int{{0, 0}}},
		{ID: 2, Parameters: []int{1, 2}, Tuples: [][]int{{1, 1}}},
	})
	groups, err := Negative{}.Generate(model)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].ID != "negative-1" || groups[1].ID != "negative-2" {
		t.Errorf("ids = %s, %s", groups[0].ID, groups[1].ID)
	}
	for _, input := range groups[0].TestInputs {
		if input[0] != 0 || input[1] != 0 {
			t.Errorf("group 1 input %v lacks (0, 0)", input)
		}
	}
	for _, input := range groups[1].TestInputs {
		if input[1] != 1 || input[2] != 1 {
			t.Errorf("group 2 input %v lacks (1, 1)", input)
		}
		if input[0] == 0 && input[1] == 0 {
			t.Errorf("group 2 input %v contains the other error tuple", input)
		}
	}
	if len(groups[0].TestInputs) == 0 || len(groups[1].TestInputs) == 0 {
		t.Error("expected both groups to have test inputs")
	}
}

func TestNegativeWithConflictingListsIsEmpty(t *testing.T) {
	model := domain.MustNewTestModel(2, []int{2, 3, 3}, nil, []domain.TupleList{
		{ID: 1, Parameters: []int{1}, Tuples: [][]int{{2}}},
		{ID: 2, Parameters: []int{0, 1}, Tuples: [][]int{{0, 1}, {0, 2}, {1, 0}, {1, 2}}},
	})
	groups, err := Negative{}.Generate(model)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// p1 = 2 always meets a tuple of list 2, which is forbidden for group 1.
	if len(groups[0].TestInputs) != 0 {
		t.Errorf("group 1 = %v, want empty", groups[0].TestInputs)
	}
	if len(groups[1].TestInputs) == 0 {
		t.Error("expected group 2 to have test inputs")
	}
}

func TestNegativeWithoutErrorTuples(t *testing.T) {
	groups, err := Negative{}.Generate(domain.MustNewTestModel(1, []int{2}, nil, nil))
	if err != nil || len(groups) != 0 {
		t.Errorf("Generate = %v, %v, want no groups", groups, err)
	}
}
