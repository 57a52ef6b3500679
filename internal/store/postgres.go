// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

// Package store provides PostgreSQL bootstrap and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry policy for startup. The database may still be
// coming up when the service starts (compose, k8s), so ping with
// fibonacci backoff before giving up.
const (
	pingBackoffBase = 500 * time.Millisecond
	pingMaxDuration = 30 * time.Second
)

// Connect opens a pgx connection pool and verifies connectivity.
// The pool is ready for concurrent use when Connect returns.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(pingMaxDuration, retry.NewFibonacci(pingBackoffBase))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
