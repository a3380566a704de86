// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

// Package store provides the PostgreSQL connection lifecycle and
// schema migrations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection ping retry configuration for Open.
const (
	pingRetryBase = 500 * time.Millisecond
	pingRetryMax  = 10 * time.Second
)

// Postgres is an explicitly constructed database handle. It is
// created once at process start, injected into the repositories, and
// closed on shutdown; there is no ambient global instance.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to the database and verifies the connection with a
// ping, retried with fibonacci backoff to ride out slow database
// startup during deploys.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(pingRetryMax, retry.NewFibonacci(pingRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return &Postgres{pool: pool}, nil
}

// Pool returns the underlying connection pool for repository
// construction.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
