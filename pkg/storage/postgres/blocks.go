package postgres

import (
	"context"
	"fmt"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
)

// MaxAppliedBlock returns the query horizon: the highest block number
// whose events are all durable.
func (s *Store) MaxAppliedBlock(ctx context.Context) (uint64, error) {
	var max *uint64
	err := s.QueryRow(ctx, `SELECT MAX(block_num) FROM blocks`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max applied block: %w", err)
	}
	if max == nil {
		return 0, storage.ErrNoBlocks
	}
	return *max, nil
}

// MarkBlockApplied records a fully applied block. Re-delivered blocks
// are absorbed by the conflict clause.
func (s *Store) MarkBlockApplied(ctx context.Context, block uint64) error {
	query := `
		INSERT INTO blocks (block_num)
		VALUES ($1)
		ON CONFLICT (block_num) DO NOTHING
	`
	if err := s.Exec(ctx, query, block); err != nil {
		return fmt.Errorf("mark block %d applied: %w", block, err)
	}
	return nil
}

// Gap is a contiguous range of unapplied block numbers.
type Gap struct {
	From uint64
	To   uint64
}

// FindGaps returns missing [From, To] ranges strictly inside the applied
// block numbers. A gap means the upstream feed skipped or lost blocks.
func (s *Store) FindGaps(ctx context.Context) ([]Gap, error) {
	query := `
		SELECT (prev_b + 1)::BIGINT AS from_b, (b - 1)::BIGINT AS to_b
		FROM (
			SELECT
				block_num AS b,
				LAG(block_num) OVER (ORDER BY block_num) AS prev_b
			FROM blocks
		) t
		WHERE prev_b IS NOT NULL AND b > prev_b + 1
		ORDER BY from_b
	`

	rows, err := s.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query gaps: %w", err)
	}
	defer rows.Close()

	var gaps []Gap
	for rows.Next() {
		var g Gap
		if err := rows.Scan(&g.From, &g.To); err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}
