// Package repository implements the domain repository interfaces on
// PostgreSQL via pgx. Domain sentinel errors pass through untouched;
// everything else is wrapped in *StorageError so callers can tell business
// failures from persistence failures.
package repository

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/db"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// StorageError wraps a persistence-layer failure. Business-rule errors are
// never wrapped in it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient. Connection-class
// failures (SQLSTATE 08xxx, network errors) are retryable; constraint
// violations (SQLSTATE 23xxx) and everything else are not.
func (e *StorageError) Retryable() bool {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr)
}

// storageErr wraps err in a *StorageError tagged with op.
func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
