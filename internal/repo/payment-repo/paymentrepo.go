package paymentrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/pg"
)

const uniqueViolation = "23505"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const columns = `id, booking_id, homeowner_id, worker_id, amount, currency, status, method, gateway, tx_ref,
	gateway_ref, phone, card_last4, created_at, updated_at`

func scan(row pgx.Row, p *domain.Payment) error {
	return row.Scan(&p.ID, &p.BookingID, &p.HomeownerID, &p.WorkerID, &p.Amount, &p.Currency, &p.Status, &p.Method,
		&p.Gateway, &p.TxRef, &p.GatewayRef, &p.Phone, &p.CardLast4, &p.CreatedAt, &p.UpdatedAt)
}

// Create inserts a payment. A second open (pending or successful) payment for
// the same booking yields domain.ErrConflict.
func (r *Repository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	query := `
		INSERT INTO payments (booking_id, homeowner_id, worker_id, amount, currency, status, method, gateway,
			tx_ref, gateway_ref, phone, card_last4)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, p.BookingID, p.HomeownerID, p.WorkerID, p.Amount, p.Currency, p.Status,
		p.Method, p.Gateway, p.TxRef, p.GatewayRef, p.Phone, p.CardLast4).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConflict
		}
		zap.L().Error("can't save payment", zap.Error(err), zap.String("tx_ref", p.TxRef))
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.get(ctx, "SELECT "+columns+" FROM payments WHERE id = $1", id)
}

func (r *Repository) GetByTxRef(ctx context.Context, txRef string) (*domain.Payment, error) {
	return r.get(ctx, "SELECT "+columns+" FROM payments WHERE tx_ref = $1", txRef)
}

// GetByGatewayRef finds a payment by the reference the gateway assigned to it.
func (r *Repository) GetByGatewayRef(ctx context.Context, gateway, ref string) (*domain.Payment, error) {
	return r.get(ctx, "SELECT "+columns+" FROM payments WHERE gateway = $1 AND gateway_ref = $2", gateway, ref)
}

func (r *Repository) get(ctx context.Context, query string, args ...any) (*domain.Payment, error) {
	var p domain.Payment
	if err := scan(r.db.QueryRow(ctx, query, args...), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get payment", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *Repository) List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	var w pg.Where
	if f.BookingID != nil {
		w.Eq("booking_id", *f.BookingID)
	}
	if f.HomeownerID != nil {
		w.Eq("homeowner_id", *f.HomeownerID)
	}
	if f.WorkerID != nil {
		w.Eq("worker_id", *f.WorkerID)
	}
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	page := f.Page.Normalize()
	query := "SELECT " + columns + " FROM payments" + w.SQL() + " ORDER BY created_at DESC" + w.Page(page.Limit, page.Offset)
	return r.query(ctx, query, w.Args...)
}

// FindPending returns pending payments created before olderThan, oldest first.
func (r *Repository) FindPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	query := "SELECT " + columns + " FROM payments WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2"
	return r.query(ctx, query, olderThan, limit)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch payments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := scan(rows, &p); err != nil {
			zap.L().Error("failed to scan payment row", zap.Error(err))
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdateStatus is a compare-and-set on the current status. An empty
// gatewayRef keeps the stored one.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus, gatewayRef string) error {
	query := `
		UPDATE payments
		SET status = $1, gateway_ref = COALESCE(NULLIF($2, ''), gateway_ref), updated_at = now()
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, to, gatewayRef, id, from)
	if err != nil {
		zap.L().Error("failed to update payment status", zap.Error(err),
			zap.String("payment_id", id.String()), zap.String("status", string(to)))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateDetails writes the administrative fields of a payment.
func (r *Repository) UpdateDetails(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	query := `
		UPDATE payments
		SET method = $1, phone = $2, gateway_ref = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query, p.Method, p.Phone, p.GatewayRef, p.ID).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		zap.L().Error("failed to update payment", zap.Error(err), zap.String("payment_id", p.ID.String()))
		return nil, err
	}
	return p, nil
}
