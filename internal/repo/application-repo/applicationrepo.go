package applicationrepo

import (
	"context"
	"errors"

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

const columns = "id, booking_id, worker_id, message, proposed_rate, status, created_at, updated_at"

func scan(row pgx.Row, a *domain.Application) error {
	return row.Scan(&a.ID, &a.BookingID, &a.WorkerID, &a.Message, &a.ProposedRate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
}

// Create inserts a pending application. A second application by the same
// worker for the same booking yields domain.ErrConflict.
func (r *Repository) Create(ctx context.Context, a *domain.Application) (*domain.Application, error) {
	query := `
		INSERT INTO applications (booking_id, worker_id, message, proposed_rate, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, a.BookingID, a.WorkerID, a.Message, a.ProposedRate, a.Status).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConflict
		}
		zap.L().Error("can't save application", zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.get(ctx, "SELECT "+columns+" FROM applications WHERE id = $1", id)
}

func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.get(ctx, "SELECT "+columns+" FROM applications WHERE id = $1 FOR UPDATE", id)
}

func (r *Repository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Application, error) {
	var a domain.Application
	if err := scan(r.db.QueryRow(ctx, query, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get application", zap.Error(err), zap.String("application_id", id.String()))
		return nil, err
	}
	return &a, nil
}

func (r *Repository) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.Application, error) {
	var w pg.Where
	if f.BookingID != nil {
		w.Eq("booking_id", *f.BookingID)
	}
	if f.WorkerID != nil {
		w.Eq("worker_id", *f.WorkerID)
	}
	if f.HomeownerID != nil {
		w.And("booking_id IN (SELECT id FROM bookings WHERE homeowner_id = " + w.Param(*f.HomeownerID) + ")")
	}
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	page := f.Page.Normalize()
	query := "SELECT " + columns + " FROM applications" + w.SQL() + " ORDER BY created_at DESC" + w.Page(page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, w.Args...)
	if err != nil {
		zap.L().Error("failed to fetch applications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		var a domain.Application
		if err := scan(rows, &a); err != nil {
			zap.L().Error("failed to scan application row", zap.Error(err))
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// UpdateStatus is a compare-and-set on the current status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus) error {
	query := `UPDATE applications SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		zap.L().Error("failed to update application status", zap.Error(err),
			zap.String("application_id", id.String()), zap.String("status", string(to)))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// RejectSiblings rejects every other pending application of the booking and
// returns the workers whose applications were rejected.
func (r *Repository) RejectSiblings(ctx context.Context, bookingID, acceptedID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE applications
		SET status = 'rejected', updated_at = now()
		WHERE booking_id = $1 AND id <> $2 AND status = 'pending'
		RETURNING worker_id
	`
	rows, err := r.db.Query(ctx, query, bookingID, acceptedID)
	if err != nil {
		zap.L().Error("failed to reject sibling applications", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, err
	}
	defer rows.Close()

	var workers []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("failed to scan rejected worker", zap.Error(err))
			return nil, err
		}
		workers = append(workers, id)
	}
	return workers, rows.Err()
}

// DeletePending removes the application only while it is still pending.
func (r *Repository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM applications WHERE id = $1 AND status = 'pending'", id)
	if err != nil {
		zap.L().Error("failed to delete application", zap.Error(err), zap.String("application_id", id.String()))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
