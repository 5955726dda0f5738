package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/combitest/combinatorial/domain"
)

// MemoryCache is a ResultCache held in memory. It is safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	results map[domain.Key]domain.TestResult
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: make(map[domain.Key]domain.TestResult)}
}

func (c *MemoryCache) ContainsResultFor(_ context.Context, input domain.Combination) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.results[input.Key()]
	return ok, nil
}

func (c *MemoryCache) ResultFor(_ context.Context, input domain.Combination) (domain.TestResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[input.Key()]
	if !ok {
		return domain.TestResult{}, fmt.Errorf("%w: result for %v", domain.ErrNotFound, input)
	}
	return result, nil
}

func (c *MemoryCache) AddResultFor(_ context.Context, input domain.Combination, result domain.TestResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[input.Key()] = result
	return nil
}

// Len returns the number of stored results.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
