package bookingrepo

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

const columns = `id, homeowner_id, worker_id, service_type, description, booking_date, start_time, end_time,
	address, amount, status, special_requests, created_at, updated_at`

func scan(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.HomeownerID, &b.WorkerID, &b.ServiceType, &b.Description, &b.BookingDate,
		&b.StartTime, &b.EndTime, &b.Address, &b.Amount, &b.Status, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt)
}

func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	query := `
		INSERT INTO bookings (homeowner_id, worker_id, service_type, description, booking_date, start_time,
			end_time, address, amount, status, special_requests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, b.HomeownerID, b.WorkerID, b.ServiceType, b.Description, b.BookingDate,
		b.StartTime, b.EndTime, b.Address, b.Amount, b.Status, b.SpecialRequests).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save booking", zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, "SELECT "+columns+" FROM bookings WHERE id = $1", id)
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, "SELECT "+columns+" FROM bookings WHERE id = $1 FOR UPDATE", id)
}

func (r *Repository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	if err := scan(r.db.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get booking", zap.Error(err), zap.String("booking_id", id.String()))
		return nil, err
	}
	return &b, nil
}

func (r *Repository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	var w pg.Where
	if f.HomeownerID != nil {
		w.Eq("homeowner_id", *f.HomeownerID)
	}
	if f.WorkerID != nil {
		if f.OpenForWorkers {
			w.And("(worker_id = " + w.Param(*f.WorkerID) + " OR (worker_id IS NULL AND status = 'pending'))")
		} else {
			w.Eq("worker_id", *f.WorkerID)
		}
	}
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	page := f.Page.Normalize()
	query := "SELECT " + columns + " FROM bookings" + w.SQL() + " ORDER BY created_at DESC" + w.Page(page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, w.Args...)
	if err != nil {
		zap.L().Error("failed to fetch bookings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		if err := scan(rows, &b); err != nil {
			zap.L().Error("failed to scan booking row", zap.Error(err))
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Update writes the editable details of a booking. Status and parties are
// changed only through UpdateStatus.
func (r *Repository) Update(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET service_type = $1, description = $2, booking_date = $3, start_time = $4, end_time = $5,
			address = $6, amount = $7, special_requests = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, b.ServiceType, b.Description, b.BookingDate, b.StartTime, b.EndTime,
		b.Address, b.Amount, b.SpecialRequests, b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		zap.L().Error("failed to update booking", zap.Error(err), zap.String("booking_id", b.ID.String()))
		return nil, err
	}
	return b, nil
}

// UpdateStatus moves the booking from one status to another only if it is
// still in the expected status. A non-nil workerID is assigned in the same
// statement.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus, workerID *uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = $1, worker_id = COALESCE($2, worker_id), updated_at = now()
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, to, workerID, id, from)
	if err != nil {
		zap.L().Error("failed to update booking status", zap.Error(err),
			zap.String("booking_id", id.String()), zap.String("status", string(to)))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		zap.L().Error("failed to delete booking", zap.Error(err), zap.String("booking_id", id.String()))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
