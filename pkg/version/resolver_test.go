package version

import (
	"context"
	"testing"

	"github.com/dgc-network/dgc-indexer/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentBlockNotReady(t *testing.T) {
	resolver := NewResolver(memory.New())

	_, err := resolver.CurrentBlock(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestCurrentBlockReturnsMaxApplied(t *testing.T) {
	adapter := memory.New()
	resolver := NewResolver(adapter)
	ctx := context.Background()

	require.NoError(t, adapter.MarkBlockApplied(ctx, 3))
	require.NoError(t, adapter.MarkBlockApplied(ctx, 7))
	require.NoError(t, adapter.MarkBlockApplied(ctx, 5))

	block, err := resolver.CurrentBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), block)
}

func TestWithCurrentBlockCapturesHorizonOnce(t *testing.T) {
	adapter := memory.New()
	resolver := NewResolver(adapter)
	ctx := context.Background()

	require.NoError(t, adapter.MarkBlockApplied(ctx, 10))

	var seen []uint64
	err := resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		seen = append(seen, block)
		// A block applied mid-query must not move the horizon.
		require.NoError(t, adapter.MarkBlockApplied(ctx, 11))
		b, err := resolver.CurrentBlock(ctx)
		require.NoError(t, err)
		seen = append(seen, b, block)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []uint64{10, 11, 10}, seen)
}

func TestWithCurrentBlockPropagatesNotReady(t *testing.T) {
	resolver := NewResolver(memory.New())

	called := false
	err := resolver.WithCurrentBlock(context.Background(), func(context.Context, uint64) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, called)
}
