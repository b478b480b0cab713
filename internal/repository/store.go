// Package repository implements the storage.Store contract on PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// repository works identically inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres storage.Store.
type Store struct {
	pool   *pgxpool.Pool
	q      Querier
	tx     pgx.Tx
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, q: pool, logger: logger}
}

func (s *Store) Projects() storage.ProjectRepo         { return &ProjectRepository{q: s.q, logger: s.logger} }
func (s *Store) WorkPackages() storage.WorkPackageRepo { return &WorkPackageRepository{q: s.q, logger: s.logger} }
func (s *Store) Steps() storage.StepRepo               { return &StepRepository{q: s.q, logger: s.logger} }
func (s *Store) Tasks() storage.TaskRepo               { return &TaskRepository{q: s.q, logger: s.logger} }
func (s *Store) Slots() storage.SlotRepo               { return &SlotRepository{q: s.q, logger: s.logger} }
func (s *Store) Events() storage.EventRepo             { return &EventRepository{q: s.q, logger: s.logger} }

// WithTx runs fn against a transaction-scoped Store. A nested call reuses the
// surrounding transaction.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &Store{pool: s.pool, q: tx, tx: tx, logger: s.logger}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
