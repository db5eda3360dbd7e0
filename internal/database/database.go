package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Settings for the PostgreSQL pool.
type Settings struct {
	DSN         string
	MaxConns    int
	IdleTimeout time.Duration
}

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, s Settings) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(s.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if s.MaxConns > 0 {
		poolCfg.MaxConns = int32(s.MaxConns)
	}
	if s.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = s.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Int("max_conns", s.MaxConns).Msg("connected to PostgreSQL")
	return pool, nil
}
