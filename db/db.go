// Package db opens the Postgres backend the league manager persists
// standings, match records and player history into.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// The manager is the only writer and traffic is one result at a time,
// so the pool stays small.
const (
	maxOpenConns    = 10
	maxIdleConns    = 10
	connMaxLifetime = 5 * time.Minute
)

// Connect opens a handle to the league database and verifies it is
// reachable before anyone issues a query.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	handle, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open league database: %w", err)
	}

	handle.SetMaxOpenConns(maxOpenConns)
	handle.SetMaxIdleConns(maxIdleConns)
	handle.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := handle.PingContext(ctx); err != nil {
		err = fmt.Errorf("ping league database within %v: %w", timeout, err)
		if closeErr := handle.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	return handle, nil
}
