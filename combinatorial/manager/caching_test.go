package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/example/combitest/combinatorial/domain"
)

// scriptedManager returns fixed inputs and records which results it saw.
type scriptedManager struct {
	initial    []domain.Combination
	additional map[domain.Key][]domain.Combination
	received   []domain.Combination
}

func (s *scriptedManager) GenerateInitialTests(context.Context) ([]domain.Combination, error) {
	return s.initial, nil
}

func (s *scriptedManager) GenerateAdditionalTestInputsWithResult(_ context.Context, input domain.Combination, _ domain.TestResult) ([]domain.Combination, error) {
	s.received = append(s.received, input)
	return s.additional[input.Key()], nil
}

func TestCachingReturnsAllInputsWithEmptyCache(t *testing.T) {
	delegate := &scriptedManager{initial: []domain.Combination{{0, 0}, {0, 1}, {1, 0}}}
	c := NewCaching(delegate, NewMemoryCache())
	got, err := c.GenerateInitialTests(context.Background())
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	if len(got) != 3 || len(delegate.received) != 0 {
		t.Errorf("got %v, delegate received %v", got, delegate.received)
	}
}

func TestCachingAnswersCachedInputs(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	if err := cache.AddResultFor(ctx, domain.Combination{0, 1}, domain.Failure("known")); err != nil {
		t.Fatalf("AddResultFor failed: %v", err)
	}
	delegate := &scriptedManager{
		initial: []domain.Combination{{0, 0}, {0, 1}, {1, 0}},
		additional: map[domain.Key][]domain.Combination{
			domain.Combination{0, 1}.Key(): {{1, 1}},
		},
	}
	c := NewCaching(delegate, cache)

	got, err := c.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	want := []domain.Combination{{0, 0}, {1, 1}, {1, 0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(delegate.received) != 1 || !delegate.received[0].Equal(domain.Combination{0, 1}) {
		t.Errorf("delegate received %v", delegate.received)
	}
}

func TestCachingNeverDuplicatesAwaitedInputs(t *testing.T) {
	ctx := context.Background()
	delegate := &scriptedManager{
		initial: []domain.Combination{{0, 0}, {0, 0}, {0, 1}},
		additional: map[domain.Key][]domain.Combination{
			domain.Combination{0, 0}.Key(): {{0, 1}, {1, 1}},
		},
	}
	c := NewCaching(delegate, NewMemoryCache())

	got, err := c.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want two distinct inputs", got)
	}

	next, err := c.GenerateAdditionalTestInputsWithResult(ctx, domain.Combination{0, 0}, domain.Success())
	if err != nil {
		t.Fatalf("GenerateAdditionalTestInputsWithResult failed: %v", err)
	}
	// [0, 1] is still awaited
	if len(next) != 1 || !next[0].Equal(domain.Combination{1, 1}) {
		t.Errorf("next = %v, want [[1, 1]]", next)
	}
}

func TestCachingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, err := NewBasic(domain.MustNewTestModel(1, []int{2, 2}, nil, nil), Configuration{Characterization: newBenFactory(t)})
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}
	c := NewCaching(m, nil)
	initial, err := c.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}

	requested := make(map[domain.Key]int)
	for _, input := range initial {
		requested[input.Key()]++
	}
	for i := 0; i < 2; i++ {
		next, err := c.GenerateAdditionalTestInputsWithResult(ctx, initial[0], domain.Failure("boom"))
		if err != nil {
			t.Fatalf("GenerateAdditionalTestInputsWithResult failed: %v", err)
		}
		for _, input := range next {
			requested[input.Key()]++
		}
	}
	for key, count := range requested {
		if count > 1 {
			t.Errorf("%v requested %d times", key.Combination(), count)
		}
	}
}

func TestCachingRegeneratesInitialTests(t *testing.T) {
	ctx := context.Background()
	m, err := NewBasic(domain.MustNewTestModel(1, []int{2, 2}, nil, nil), Configuration{})
	if err != nil {
		t.Fatalf("NewBasic failed: %v", err)
	}
	c := NewCaching(m, nil)

	first, err := c.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	second, err := c.GenerateInitialTests(ctx)
	if err != nil {
		t.Fatalf("GenerateInitialTests failed: %v", err)
	}
	if len(second) != len(first) || len(second) == 0 {
		t.Fatalf("second = %v, want the %d inputs of the new session", second, len(first))
	}

	for _, input := range second {
		if _, err := c.GenerateAdditionalTestInputsWithResult(ctx, input, domain.Success()); err != nil {
			t.Fatalf("GenerateAdditionalTestInputsWithResult failed: %v", err)
		}
	}
	if !m.IsFinished() {
		t.Error("expected the regenerated session to finish")
	}
}

type failingCache struct{ *MemoryCache }

func (failingCache) AddResultFor(context.Context, domain.Combination, domain.TestResult) error {
	return errors.New("disk full")
}

func TestCachingPropagatesCacheErrors(t *testing.T) {
	c := NewCaching(&scriptedManager{}, failingCache{NewMemoryCache()})
	if _, err := c.GenerateAdditionalTestInputsWithResult(context.Background(), domain.Combination{0}, domain.Success()); err == nil {
		t.Error("expected cache error")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	if _, err := cache.ResultFor(ctx, domain.Combination{0}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ResultFor = %v, want ErrNotFound", err)
	}
	_ = cache.AddResultFor(ctx, domain.Combination{0}, domain.Success())
	_ = cache.AddResultFor(ctx, domain.Combination{0}, domain.Failure("flaky"))
	got, err := cache.ResultFor(ctx, domain.Combination{0})
	if err != nil || !got.IsFailure() || cache.Len() != 1 {
		t.Errorf("ResultFor = %+v, %v, len %d", got, err, cache.Len())
	}
}
