package disputerepo

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

const columns = `id, booking_id, raised_by, respondent_id, reason, description, status, resolution_action,
	resolution_notes, refund_amount, resolved_by, resolved_at, created_at, updated_at`

func scan(row pgx.Row, d *domain.Dispute) error {
	return row.Scan(&d.ID, &d.BookingID, &d.RaisedBy, &d.RespondentID, &d.Reason, &d.Description, &d.Status,
		&d.ResolutionAction, &d.ResolutionNotes, &d.RefundAmount, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
}

func (r *Repository) Create(ctx context.Context, d *domain.Dispute) (*domain.Dispute, error) {
	query := `
		INSERT INTO disputes (booking_id, raised_by, respondent_id, reason, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, d.BookingID, d.RaisedBy, d.RespondentID, d.Reason, d.Description, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save dispute", zap.Error(err), zap.String("booking_id", d.BookingID.String()))
		return nil, err
	}
	return d, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	var d domain.Dispute
	if err := scan(r.db.QueryRow(ctx, "SELECT "+columns+" FROM disputes WHERE id = $1", id), &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get dispute", zap.Error(err), zap.String("dispute_id", id.String()))
		return nil, err
	}
	return &d, nil
}

func (r *Repository) List(ctx context.Context, f domain.DisputeFilter) ([]domain.Dispute, error) {
	var w pg.Where
	if f.PartyID != nil {
		p := w.Param(*f.PartyID)
		w.And("(raised_by = " + p + " OR respondent_id = " + p + ")")
	}
	if f.BookingID != nil {
		w.Eq("booking_id", *f.BookingID)
	}
	if f.Status != "" {
		w.Eq("status", f.Status)
	}
	page := f.Page.Normalize()
	query := "SELECT " + columns + " FROM disputes" + w.SQL() + " ORDER BY created_at DESC" + w.Page(page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, w.Args...)
	if err != nil {
		zap.L().Error("failed to fetch disputes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	disputes := []domain.Dispute{}
	for rows.Next() {
		var d domain.Dispute
		if err := scan(rows, &d); err != nil {
			zap.L().Error("failed to scan dispute row", zap.Error(err))
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

// UpdateStatus is a compare-and-set on the current status. A non-nil
// ResolvedBy stamps resolved_at.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.DisputeStatus, upd domain.DisputeUpdate) error {
	query := `
		UPDATE disputes
		SET status = $1,
			resolution_action = COALESCE(NULLIF($2, ''), resolution_action),
			resolution_notes = COALESCE(NULLIF($3, ''), resolution_notes),
			refund_amount = $4,
			resolved_by = COALESCE($5, resolved_by),
			resolved_at = CASE WHEN $5::uuid IS NULL THEN resolved_at ELSE now() END,
			updated_at = now()
		WHERE id = $6 AND status = $7
	`
	tag, err := r.db.Exec(ctx, query, to, upd.Action, upd.Notes, upd.RefundAmount, upd.ResolvedBy, id, from)
	if err != nil {
		zap.L().Error("failed to update dispute status", zap.Error(err),
			zap.String("dispute_id", id.String()), zap.String("status", string(to)))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}
