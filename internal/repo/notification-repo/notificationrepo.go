package notificationrepo

import (
	"context"

	"github.com/google/uuid"
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

func (r *Repository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, type, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at
	`
	err := r.db.QueryRow(ctx, query, n.UserID, n.Type, n.Title, n.Message).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		zap.L().Error("can't save notification", zap.Error(err), zap.String("user_id", n.UserID.String()))
		return nil, err
	}
	return n, nil
}

// ListByUser returns the most recent notifications of the user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page domain.Page) ([]domain.Notification, error) {
	var w pg.Where
	w.Eq("user_id", userID)
	if unreadOnly {
		w.And("read = false")
	}
	page = page.Normalize()
	query := "SELECT id, user_id, type, title, message, read, created_at FROM notifications" + w.SQL() +
		" ORDER BY created_at DESC" + w.Page(page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, w.Args...)
	if err != nil {
		zap.L().Error("failed to fetch notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	notifications := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			zap.L().Error("failed to scan notification row", zap.Error(err))
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead returns false when the notification does not belong to the user.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, "UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		zap.L().Error("failed to mark notification read", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, "UPDATE notifications SET read = true WHERE user_id = $1 AND read = false", userID)
	if err != nil {
		zap.L().Error("failed to mark notifications read", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
