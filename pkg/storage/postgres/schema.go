package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"go.uber.org/zap"
)

// keyColumns maps each collection to the columns that identify a logical
// entity across its version history. Order matters: it is the order key
// values are bound in queries.
var keyColumns = map[storage.Collection][]string{
	storage.Participants:  {"public_key"},
	storage.Records:       {"record_id"},
	storage.Tables:        {"name"},
	storage.Properties:    {"name", "record_id"},
	storage.PropertyPages: {"name", "record_id", "page_num"},
	storage.Proposals:     {"proposal_id"},
	storage.Exchanges:     {"buy_proposal_id", "sell_proposal_id"},
}

// columnType returns the SQL type of a key column.
func columnType(col string) string {
	if col == "page_num" {
		return "BIGINT"
	}
	return "TEXT"
}

// InitSchema creates every table the adapter needs. Safe to run on every
// startup.
func (s *Store) InitSchema(ctx context.Context) error {
	s.Logger.Info("initializing schema")

	for _, c := range storage.Collections() {
		if err := s.initCollection(ctx, c); err != nil {
			return fmt.Errorf("init %s: %w", c, err)
		}
	}
	if err := s.initBlocks(ctx); err != nil {
		return fmt.Errorf("init blocks: %w", err)
	}
	if err := s.initUsers(ctx); err != nil {
		return fmt.Errorf("init users: %w", err)
	}

	s.Logger.Info("schema ready")
	return nil
}

// initCollection creates one versioned collection table. The partial
// index keeps open-version lookups cheap regardless of history depth.
func (s *Store) initCollection(ctx context.Context, c storage.Collection) error {
	cols := keyColumns[c]

	var defs []string
	for _, col := range cols {
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", col, columnType(col)))
	}
	defs = append(defs,
		"start_block BIGINT NOT NULL",
		"end_block BIGINT NOT NULL",
		"payload JSONB NOT NULL",
		fmt.Sprintf("PRIMARY KEY (%s, start_block)", strings.Join(cols, ", ")),
	)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
		);

		CREATE INDEX IF NOT EXISTS idx_%s_open ON %s(%s)
			WHERE end_block = %d;

		CREATE INDEX IF NOT EXISTS idx_%s_interval ON %s(start_block, end_block);
	`,
		c, strings.Join(defs, ",\n\t\t\t"),
		c, c, strings.Join(cols, ", "), storage.EndBlockInfinity,
		c, c,
	)

	s.Logger.Debug("initializing collection", zap.String("collection", string(c)))
	return s.Exec(ctx, query)
}

// initBlocks creates the applied-blocks table. The horizon is the MAX of
// this table.
func (s *Store) initBlocks(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS blocks (
			block_num BIGINT PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`
	return s.Exec(ctx, query)
}

// initUsers creates the private account table. Users are not versioned.
func (s *Store) initUsers(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			public_key TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			encrypted_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);
	`
	return s.Exec(ctx, query)
}
