package notifyservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
)

type Repo interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page domain.Page) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Publisher fans notifications out to other consumers. Optional.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Notification kinds.
const (
	KindBooking     = "booking"
	KindApplication = "application"
	KindPayment     = "payment"
	KindWithdrawal  = "withdrawal"
	KindDispute     = "dispute"
	KindDocument    = "document"
)

type Service struct {
	repo      Repo
	publisher Publisher
}

func New(repo Repo, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
	}
}

// Notify stores a notification for the user and publishes it when a
// publisher is configured. Failures are logged and never returned.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string) {
	if userID == uuid.Nil {
		return
	}
	n, err := s.repo.Create(ctx, &domain.Notification{UserID: userID, Type: kind, Title: title, Message: message})
	if err != nil {
		zap.L().Error("failed to store notification", zap.Error(err),
			zap.String("user_id", userID.String()), zap.String("kind", kind))
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, "notification."+kind, n); err != nil {
		zap.L().Warn("failed to publish notification", zap.Error(err), zap.String("kind", kind))
	}
}

func (s *Service) List(ctx context.Context, p *auth.Principal, unreadOnly bool, page domain.Page) ([]domain.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, p.UserID, unreadOnly, page)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, p.UserID, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, p *auth.Principal) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}
