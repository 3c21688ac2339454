// Package version maintains non-overlapping validity intervals per
// logical key and resolves the block horizon queries run against.
package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"go.uber.org/zap"
)

var (
	// ErrEmptyPayload rejects an upsert with no business fields.
	ErrEmptyPayload = errors.New("version: empty payload")

	// ErrBlockOrder rejects an upsert older than the key's open version.
	ErrBlockOrder = errors.New("version: block number precedes current version")
)

// Store turns a stream of entity mutations into versioned history.
type Store struct {
	adapter storage.Adapter
	logger  *zap.Logger
}

// NewStore creates a version store over an adapter.
func NewStore(adapter storage.Adapter, logger *zap.Logger) *Store {
	return &Store{adapter: adapter, logger: logger}
}

// Upsert applies one mutation of key at blockNum: the open version (if
// any) is closed at blockNum and a new version inserted with interval
// [blockNum, infinity). A version already starting at blockNum makes the
// call a no-op, which is what absorbs at-least-once redelivery.
//
// The whole transition is atomic per key; other keys are untouched.
func (s *Store) Upsert(ctx context.Context, c storage.Collection, key storage.Key, payload []byte, blockNum uint64) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}

	return s.adapter.UpdateKey(ctx, c, key, func(tx storage.KeyTx) error {
		dups, err := tx.VersionsStartingAt(ctx, blockNum)
		if err != nil {
			return fmt.Errorf("check duplicates: %w", err)
		}
		if len(dups) > 0 {
			s.logger.Debug("duplicate block state, skipping",
				zap.String("collection", string(c)),
				zap.Uint64("block", blockNum),
			)
			return nil
		}

		open, err := tx.OpenVersions(ctx)
		if err != nil {
			return fmt.Errorf("load open versions: %w", err)
		}
		for _, v := range open {
			if v.StartBlock > blockNum {
				return fmt.Errorf("%w: open version starts at %d, got %d", ErrBlockOrder, v.StartBlock, blockNum)
			}
		}

		if len(open) > 0 {
			if err := tx.CloseVersions(ctx, blockNum); err != nil {
				return fmt.Errorf("close open versions: %w", err)
			}
		}

		return tx.InsertVersion(ctx, storage.Version{
			Key:        key,
			StartBlock: blockNum,
			EndBlock:   storage.EndBlockInfinity,
			Payload:    payload,
		})
	})
}
