package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPingTimeout = 5 * time.Second

// Options tunes the pool beyond what the DSN carries. Zero values defer to
// the DSN and pgxpool defaults.
type Options struct {
	// AppName shows up as application_name in pg_stat_activity so the API
	// and worker pools can be told apart on a shared database.
	AppName     string
	MaxConns    int32
	MinConns    int32
	PingTimeout time.Duration
}

// New creates a pool with default options.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return NewWithOptions(ctx, dsn, Options{})
}

// NewWithOptions parses the DSN, applies the overrides, and verifies the
// connection with a bounded ping. A failed ping closes the pool before
// returning so a misconfigured DSN never leaks connections.
func NewWithOptions(ctx context.Context, dsn string, opts Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	applyOptions(cfg, opts)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}

func applyOptions(cfg *pgxpool.Config, opts Options) {
	if opts.AppName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = opts.AppName
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
}
