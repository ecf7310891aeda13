// Package store is the durable Postgres-backed persistence layer
// (spec §4.1). It owns every row; every other package borrows read
// snapshots and mutates only through the methods here, each of which
// runs under a transaction when it touches more than one table.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/apperr"
)

//go:embed schema.sql
var schemaSQL string

// Querier is satisfied by both *sql.DB and *sql.Tx, letting every query
// method below run either standalone or inside a caller-managed
// transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store wraps a Postgres connection pool and implements the query and
// mutation contracts consumed by the engines and admin mutators.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open connects to Postgres via lib/pq and verifies connectivity.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperr.Internal(err, "open postgres connection")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, apperr.Internal(err, "ping postgres")
	}
	return New(db, log), nil
}

// New wraps an already-open *sql.DB, letting callers (notably tests,
// which inject a sqlmock connection) bypass Open's dial-and-ping step.
func New(db *sql.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying pool as a Querier, for callers that need
// to run a standalone read outside any caller-managed transaction.
func (s *Store) DB() Querier {
	return s.db
}

// Migrate applies the embedded schema. It is idempotent: every DDL
// statement uses IF NOT EXISTS, so it is safe to call on every boot.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return apperr.Internal(err, "apply schema")
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on success and
// rolling back on error or panic. Used by every mutator that touches
// more than one table (§5: closure-table maintenance executes in the
// same transaction as the node insert/delete).
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return apperr.Internal(err, "commit transaction")
	}
	return nil
}

// classifyPQError maps a Postgres driver error onto apperr kinds.
func classifyPQError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(notFoundMsg)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apperr.Conflict("%s", pqErr.Detail)
		case "check_violation":
			return apperr.Integrity("%s", pqErr.Detail)
		case "foreign_key_violation":
			return apperr.NotFound("%s", pqErr.Detail)
		}
	}
	return apperr.Internal(err, "storage operation failed")
}
