package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
)

// ErrNotReady means no block has been applied yet, so there is no
// horizon to query against. Callers should retry with backoff; this is a
// bootstrapping condition, not a failure.
var ErrNotReady = errors.New("version: no block applied yet")

// Resolver scopes reads to a consistent block horizon.
type Resolver struct {
	adapter storage.Adapter
}

// NewResolver creates a resolver over an adapter.
func NewResolver(adapter storage.Adapter) *Resolver {
	return &Resolver{adapter: adapter}
}

// CurrentBlock returns the latest fully applied block number.
func (r *Resolver) CurrentBlock(ctx context.Context) (uint64, error) {
	block, err := r.adapter.MaxAppliedBlock(ctx)
	if errors.Is(err, storage.ErrNoBlocks) {
		return 0, ErrNotReady
	}
	if err != nil {
		return 0, fmt.Errorf("resolve current block: %w", err)
	}
	return block, nil
}

// WithCurrentBlock reads the horizon once and runs fn against it. The
// captured block is fixed for the whole call, so a query never observes
// writes from blocks applied while it runs.
func (r *Resolver) WithCurrentBlock(ctx context.Context, fn func(ctx context.Context, block uint64) error) error {
	block, err := r.CurrentBlock(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, block)
}
