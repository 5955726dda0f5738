package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/combitest/combinatorial/domain"
)

// Caching wraps a Manager so that test inputs with a known result are never
// handed out again and no test input is outstanding twice. It is safe for
// concurrent use.
type Caching struct {
	delegate Manager
	cache    ResultCache

	mu      sync.Mutex
	awaited map[domain.Key]struct{}
}

// NewCaching wraps delegate, answering known results from cache.
func NewCaching(delegate Manager, cache ResultCache) *Caching {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Caching{
		delegate: delegate,
		cache:    cache,
		awaited:  make(map[domain.Key]struct{}),
	}
}

func (c *Caching) GenerateInitialTests(ctx context.Context) ([]domain.Combination, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The delegate starts a new session, so nothing is outstanding anymore.
	c.awaited = make(map[domain.Key]struct{})
	needed, err := c.delegate.GenerateInitialTests(ctx)
	if err != nil {
		return nil, err
	}
	return c.unknown(ctx, needed)
}

func (c *Caching) GenerateAdditionalTestInputsWithResult(ctx context.Context, input domain.Combination, result domain.TestResult) ([]domain.Combination, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.awaited, input.Key())
	if err := c.cache.AddResultFor(ctx, input, result); err != nil {
		return nil, fmt.Errorf("failed to cache result: %w", err)
	}
	needed, err := c.delegate.GenerateAdditionalTestInputsWithResult(ctx, input, result)
	if err != nil {
		return nil, err
	}
	return c.unknown(ctx, needed)
}

// unknown feeds cached results of needed inputs back to the delegate until
// only inputs with unknown results remain, and returns those not already
// awaited.
func (c *Caching) unknown(ctx context.Context, needed []domain.Combination) ([]domain.Combination, error) {
	queue := distinct(needed)
	var unknown []domain.Combination
	for len(queue) > 0 {
		input := queue[0]
		queue = queue[1:]

		cached, err := c.cache.ContainsResultFor(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query cache: %w", err)
		}
		if cached {
			result, err := c.cache.ResultFor(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("failed to read cached result: %w", err)
			}
			next, err := c.delegate.GenerateAdditionalTestInputsWithResult(ctx, input, result)
			if err != nil {
				return nil, err
			}
			queue = append(distinct(next), queue...)
			continue
		}

		key := input.Key()
		if _, ok := c.awaited[key]; ok {
			continue
		}
		c.awaited[key] = struct{}{}
		unknown = append(unknown, input)
	}
	return unknown, nil
}

func distinct(inputs []domain.Combination) []domain.Combination {
	seen := make(map[domain.Key]bool, len(inputs))
	out := make([]domain.Combination, 0, len(inputs))
	for _, input := range inputs {
		if key := input.Key(); !seen[key] {
			seen[key] = true
			out = append(out, input)
		}
	}
	return out
}
