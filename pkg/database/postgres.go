package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// TxQuerier is implemented by both pgxpool.Pool and pgx.Tx.
// Repository methods that may run inside a transaction accept TxQuerier.
type TxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolOptions controls how NewPool connects.
type PoolOptions struct {
	DSN        string
	MaxRetries int
	// BaseBackoff is doubled after every failed attempt. Defaults to one second.
	BaseBackoff time.Duration
}

// NewPool creates a PostgreSQL connection pool, retrying with exponential backoff
// until the database answers a ping or the attempts run out.
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	attempts := max(opts.MaxRetries, 1)
	base := opts.BaseBackoff
	if base <= 0 {
		base = time.Second
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var pool *pgxpool.Pool
		pool, err = connect(ctx, opts.DSN)
		if err == nil {
			log.Info().Int("attempt", attempt+1).Msg("database connection established")
			return pool, nil
		}

		if attempt == attempts-1 {
			break
		}

		backoff := base << attempt
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", attempts).
			Dur("next_retry_in", backoff).
			Msg("database connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

func connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return pool, nil
}
