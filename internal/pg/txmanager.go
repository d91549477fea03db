package pg

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type TransactionalFn func(ctx context.Context) error

type TXManager interface {
	Begin(ctx context.Context, fn TransactionalFn) error
}

type Manager struct {
	pool Pool
}

func NewTXManager(pool Pool) *Manager {
	return &Manager{pool: pool}
}

// Begin runs fn inside a transaction. A call made while a transaction is
// already open in ctx joins it instead of nesting.
func (m *Manager) Begin(ctx context.Context, fn TransactionalFn) (err error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			zap.L().Error("rollback failed", zap.Error(rbErr))
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
