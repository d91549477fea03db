package withdrawalrepo

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
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const columns = `id, worker_id, amount, fee, net_amount, method, phone, status, admin_notes, gateway_ref,
	processed_by, processed_at, created_at, updated_at`

func scan(row pgx.Row, wd *domain.Withdrawal) error {
	return row.Scan(&wd.ID, &wd.WorkerID, &wd.Amount, &wd.Fee, &wd.NetAmount, &wd.Method, &wd.Phone, &wd.Status,
		&wd.AdminNotes, &wd.GatewayRef, &wd.ProcessedBy, &wd.ProcessedAt, &wd.CreatedAt, &wd.UpdatedAt)
}

func (r *Repository) CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (worker_id, amount, fee, net_amount, method, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, withdrawal.WorkerID, withdrawal.Amount, withdrawal.Fee, withdrawal.NetAmount,
		withdrawal.Method, withdrawal.Phone, withdrawal.Status).
		Scan(&withdrawal.ID, &withdrawal.CreatedAt, &withdrawal.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	var wd domain.Withdrawal
	if err := scan(r.db.QueryRow(ctx, "SELECT "+columns+" FROM withdrawals WHERE id = $1", id), &wd); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get withdrawal", zap.Error(err), zap.String("withdrawal_id", id.String()))
		return nil, err
	}
	return &wd, nil
}

func (r *Repository) GetWithdrawals(ctx context.Context, f domain.WithdrawalFilter) ([]domain.Withdrawal, error) {
	var w pg.Where
	if f.WorkerID != nil {
		w.Eq("worker_id", *f.WorkerID)
	}
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	page := f.Page.Normalize()
	query := "SELECT " + columns + " FROM withdrawals" + w.SQL() + " ORDER BY created_at DESC" + w.Page(page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, w.Args...)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	withdrawals := []domain.Withdrawal{}
	for rows.Next() {
		var wd domain.Withdrawal
		if err := scan(rows, &wd); err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, wd)
	}
	return withdrawals, rows.Err()
}

// UpdateStatus is a compare-and-set on the current status. Notes and the
// gateway reference are kept when empty; processedBy stamps processed_at.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WithdrawalStatus, upd domain.WithdrawalUpdate) error {
	query := `
		UPDATE withdrawals
		SET status = $1,
			admin_notes = COALESCE(NULLIF($2, ''), admin_notes),
			gateway_ref = COALESCE(NULLIF($3, ''), gateway_ref),
			processed_by = COALESCE($4, processed_by),
			processed_at = CASE WHEN $4::uuid IS NULL THEN processed_at ELSE now() END,
			updated_at = now()
		WHERE id = $5 AND status = $6
	`
	tag, err := r.db.Exec(ctx, query, to, upd.AdminNotes, upd.GatewayRef, upd.ProcessedBy, id, from)
	if err != nil {
		zap.L().Error("failed to update withdrawal status", zap.Error(err),
			zap.String("withdrawal_id", id.String()), zap.String("status", string(to)))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}
