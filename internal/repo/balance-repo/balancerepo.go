package balancerepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/pg"
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

const balanceQuery = `
	SELECT
		COALESCE((SELECT SUM(p.amount) FROM payments p JOIN bookings b ON b.id = p.booking_id WHERE b.worker_id = $1 AND p.status = 'success'), 0),
		COALESCE((SELECT SUM(amount) FROM withdrawals WHERE worker_id = $1 AND status = 'completed'), 0),
		COALESCE((SELECT SUM(amount) FROM withdrawals WHERE worker_id = $1 AND status IN ('pending', 'approved', 'processing')), 0)
`

// GetWorkerBalance computes the balance from settled payments and
// withdrawals. Nothing is stored. Payments are credited to the worker the
// booking is assigned to, so a booking paid before assignment still counts.
func (r *Repository) GetWorkerBalance(ctx context.Context, workerID uuid.UUID) (*domain.Balance, error) {
	var earned, withdrawn, pending float64
	err := r.db.QueryRow(ctx, balanceQuery, workerID).Scan(&earned, &withdrawn, &pending)
	if err != nil {
		zap.L().Error("failed to get worker balance", zap.Error(err), zap.String("worker_id", workerID.String()))
		return nil, err
	}
	return domain.NewBalance(workerID, earned, withdrawn, pending), nil
}

// LockWorkerBalance locks the worker row and computes the balance in the
// same transaction, so concurrent withdrawal requests for one worker are
// serialized. Called inside an open transaction it joins it.
func (r *Repository) LockWorkerBalance(ctx context.Context, workerID uuid.UUID) (*domain.Balance, error) {
	var balance *domain.Balance
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		var id uuid.UUID
		if err := r.db.QueryRow(ctx, "SELECT id FROM workers WHERE id = $1 FOR UPDATE", workerID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			zap.L().Error("failed to lock worker", zap.Error(err), zap.String("worker_id", workerID.String()))
			return err
		}
		var err error
		balance, err = r.GetWorkerBalance(ctx, workerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
