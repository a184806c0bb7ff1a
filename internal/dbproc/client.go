// Package dbproc provides typed Go wrappers around the database's sp_*
// stored procedures - the sole mutation surface for conversation and
// session data. Most exported methods issue one SELECT against an
// sp_xxx(...) function over database/sql; sp_auth_logout is invoked with
// CALL, and a few read-only lookups (users, user roles, sessions,
// conversation participants) query tables directly. Embedded RGP.* error
// codes are mapped to the service-level taxonomy in errors.go.
package dbproc

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Client wraps a pooled connection to the stored-procedure database.
type Client struct {
	db               *sql.DB
	statementTimeout time.Duration
}

// Open opens the connection pool and verifies connectivity.
func Open(dsn string, maxConnections int, statementTimeout time.Duration) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxConnections > 0 {
		db.SetMaxOpenConns(maxConnections)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Client{db: db, statementTimeout: statementTimeout}, nil
}

// NewWithDB wraps an already-open *sql.DB, bypassing Open's dial and ping.
// Used by callers (and by other packages' tests) that construct the pool
// themselves, such as one backed by sqlmock.
func NewWithDB(db *sql.DB, statementTimeout time.Duration) *Client {
	return &Client{db: db, statementTimeout: statementTimeout}
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// DB exposes the underlying pool for components (the durable event store)
// that need raw SQL access outside the stored-procedure contract.
func (c *Client) DB() *sql.DB {
	return c.db
}

// withStatementTimeout derives a context bounded by the configured
// statement timeout, used by every procedure call below.
func (c *Client) withStatementTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.statementTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.statementTimeout)
}
