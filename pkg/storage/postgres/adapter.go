package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/jackc/pgx/v5"
)

// Store implements storage.Adapter on PostgreSQL.
type Store struct {
	*Client
}

// New wraps a connected client as an adapter.
func New(client *Client) *Store {
	return &Store{Client: client}
}

// keyArgs returns the WHERE fragment and bind arguments for a key, in
// the collection's declared column order.
func keyArgs(c storage.Collection, key storage.Key) (string, []any, error) {
	cols, ok := keyColumns[c]
	if !ok {
		return "", nil, fmt.Errorf("unknown collection %q", c)
	}
	if len(key) != len(cols) {
		return "", nil, fmt.Errorf("collection %s expects key columns %v, got %v", c, cols, key)
	}

	var (
		preds []string
		args  []any
	)
	for i, col := range cols {
		v, ok := key[col]
		if !ok {
			return "", nil, fmt.Errorf("collection %s key missing column %q", c, col)
		}
		preds = append(preds, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, v)
	}
	return strings.Join(preds, " AND "), args, nil
}

// UpdateKey runs fn against the key's version set inside one
// transaction. Open rows are locked up front, so concurrent upserts of
// the same key serialize while other keys proceed untouched.
func (s *Store) UpdateKey(ctx context.Context, c storage.Collection, key storage.Key, fn func(storage.KeyTx) error) error {
	where, args, err := keyArgs(c, key)
	if err != nil {
		return err
	}

	return s.BeginFunc(ctx, func(tx pgx.Tx) error {
		return fn(&keyTx{
			tx:         tx,
			collection: c,
			key:        key,
			where:      where,
			args:       args,
		})
	})
}

// keyTx is the storage.KeyTx implementation bound to one transaction.
type keyTx struct {
	tx         pgx.Tx
	collection storage.Collection
	key        storage.Key
	where      string
	args       []any
}

func (t *keyTx) scan(ctx context.Context, extra string, extraArgs ...any) ([]storage.Version, error) {
	query := fmt.Sprintf(
		"SELECT start_block, end_block, payload FROM %s WHERE %s AND %s FOR UPDATE",
		t.collection, t.where, extra,
	)
	rows, err := t.tx.Query(ctx, query, append(append([]any{}, t.args...), extraArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("query %s versions: %w", t.collection, err)
	}
	defer rows.Close()

	var versions []storage.Version
	for rows.Next() {
		v := storage.Version{Key: t.key}
		if err := rows.Scan(&v.StartBlock, &v.EndBlock, &v.Payload); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (t *keyTx) OpenVersions(ctx context.Context) ([]storage.Version, error) {
	n := len(t.args) + 1
	return t.scan(ctx, fmt.Sprintf("end_block = $%d", n), storage.EndBlockInfinity)
}

func (t *keyTx) VersionsStartingAt(ctx context.Context, block uint64) ([]storage.Version, error) {
	n := len(t.args) + 1
	return t.scan(ctx, fmt.Sprintf("start_block = $%d", n), block)
}

func (t *keyTx) CloseVersions(ctx context.Context, atBlock uint64) error {
	n := len(t.args)
	query := fmt.Sprintf(
		"UPDATE %s SET end_block = $%d WHERE %s AND end_block = $%d",
		t.collection, n+1, t.where, n+2,
	)
	args := append(append([]any{}, t.args...), atBlock, storage.EndBlockInfinity)
	_, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("close %s versions: %w", t.collection, err)
	}
	return nil
}

func (t *keyTx) InsertVersion(ctx context.Context, v storage.Version) error {
	cols := keyColumns[t.collection]

	var (
		names        []string
		placeholders []string
		args         []any
	)
	for i, col := range cols {
		names = append(names, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, v.Key[col])
	}
	base := len(cols)
	names = append(names, "start_block", "end_block", "payload")
	placeholders = append(placeholders,
		fmt.Sprintf("$%d", base+1), fmt.Sprintf("$%d", base+2), fmt.Sprintf("$%d", base+3))
	args = append(args, v.StartBlock, v.EndBlock, v.Payload)

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		t.collection, strings.Join(names, ", "), strings.Join(placeholders, ", "),
	)
	if _, err := t.tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s version: %w", t.collection, err)
	}
	return nil
}

// ScanCurrent returns versions current at block whose payload matches
// filter. Filter fields address top-level payload keys.
func (s *Store) ScanCurrent(ctx context.Context, c storage.Collection, block uint64, filter storage.Filter) ([]storage.Version, error) {
	cols, ok := keyColumns[c]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", c)
	}

	preds := []string{"start_block <= $1", "end_block > $1"}
	args := []any{block}

	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		args = append(args, filter[f])
		preds = append(preds, fmt.Sprintf("payload->>'%s' = $%d", f, len(args)))
	}

	query := fmt.Sprintf(
		"SELECT %s, start_block, end_block, payload FROM %s WHERE %s",
		strings.Join(cols, ", "), c, strings.Join(preds, " AND "),
	)

	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c, err)
	}
	defer rows.Close()

	var versions []storage.Version
	for rows.Next() {
		keyVals := make([]any, len(cols))
		dest := make([]any, 0, len(cols)+3)
		for i := range keyVals {
			dest = append(dest, &keyVals[i])
		}
		var v storage.Version
		dest = append(dest, &v.StartBlock, &v.EndBlock, &v.Payload)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", c, err)
		}
		v.Key = make(storage.Key, len(cols))
		for i, col := range cols {
			v.Key[col] = keyVals[i]
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
