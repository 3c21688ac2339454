package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolConfig tunes the pgx connection pool.
type PoolConfig struct {
	MinConns int32
	MaxConns int32
}

// Client wraps a pgx pool with a logger and the small set of helpers the
// adapter uses.
type Client struct {
	Pool   *pgxpool.Pool
	Logger *zap.Logger
}

// NewClient connects to PostgreSQL and verifies the connection.
func NewClient(ctx context.Context, logger *zap.Logger, url string, poolCfg *PoolConfig) (*Client, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MinConns = 2
	config.MaxConns = 20
	if poolCfg != nil {
		if poolCfg.MinConns > 0 {
			config.MinConns = poolCfg.MinConns
		}
		if poolCfg.MaxConns > 0 {
			config.MaxConns = poolCfg.MaxConns
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("connected to postgres",
		zap.Int32("min_conns", config.MinConns),
		zap.Int32("max_conns", config.MaxConns),
	)

	return &Client{Pool: pool, Logger: logger}, nil
}

// Exec runs a statement, discarding the command tag.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.Pool.Exec(ctx, sql, args...)
	return err
}

// Query runs a query returning rows.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.Pool.Query(ctx, sql, args...)
}

// QueryRow runs a single-row query.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.Pool.QueryRow(ctx, sql, args...)
}

// BeginFunc runs fn inside a transaction, committing on nil and rolling
// back on error.
func (c *Client) BeginFunc(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, c.Pool, fn)
}

// Close releases the pool.
func (c *Client) Close() {
	c.Pool.Close()
}
