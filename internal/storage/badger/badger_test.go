package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/combitest/combinatorial/domain"
)

func TestResults(t *testing.T) {
	ctx := context.Background()
	s, err := Open("", nil)
	require.NoError(t, err)
	defer s.Close()

	cache := s.Results("fp")
	input := domain.Combination{2, domain.NoValue, 0}

	ok, err := cache.ContainsResultFor(ctx, input)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = cache.ResultFor(ctx, input)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, cache.AddResultFor(ctx, input, domain.Failure("boom")))
	result, err := cache.ResultFor(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.Failure("boom"), result)

	ok, err = s.Results("other").ContainsResultFor(ctx, input)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultsPersist(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Results("fp").AddResultFor(ctx, domain.Combination{1, 1}, domain.Success()))
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()
	result, err := s.Results("fp").ResultFor(ctx, domain.Combination{1, 1})
	require.NoError(t, err)
	assert.True(t, result.IsSuccessful())
}
