package applicationservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/pg"
	"github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
)

type Repo interface {
	Create(ctx context.Context, a *domain.Application) (*domain.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	List(ctx context.Context, f domain.ApplicationFilter) ([]domain.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus) error
	RejectSiblings(ctx context.Context, bookingID, acceptedID uuid.UUID) ([]uuid.UUID, error)
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
}

type BookingRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus, workerID *uuid.UUID) error
}

type Directory interface {
	UserIDForSubject(ctx context.Context, role domain.Role, subjectID uuid.UUID) (uuid.UUID, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string)
}

type Service struct {
	repo      Repo
	bookings  BookingRepo
	directory Directory
	notifier  Notifier
	txManager pg.TXManager
}

func New(repo Repo, bookings BookingRepo, directory Directory, notifier Notifier, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		bookings:  bookings,
		directory: directory,
		notifier:  notifier,
		txManager: txManager,
	}
}

// Apply records a worker's bid on an open booking and tells the homeowner.
func (s *Service) Apply(ctx context.Context, p *auth.Principal, req dto.ApplyRequestDTO) (*domain.Application, error) {
	if !p.Is(domain.RoleWorker) || p.SubjectID == uuid.Nil {
		return nil, domain.ErrForbidden
	}
	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if b.Status != domain.BookingPending || (b.WorkerID != nil && *b.WorkerID != p.SubjectID) {
		return nil, domain.NewValidationError("Booking is not open for applications", "bookingId")
	}

	app, err := s.repo.Create(ctx, &domain.Application{
		BookingID:    req.BookingID,
		WorkerID:     p.SubjectID,
		Message:      req.Message,
		ProposedRate: req.ProposedRate,
		Status:       domain.ApplicationPending,
	})
	if err != nil {
		zap.L().Error("can't create application", zap.Error(err), zap.String("booking_id", req.BookingID.String()))
		return nil, err
	}

	s.notify(ctx, domain.RoleHomeowner, b.HomeownerID, "New Application",
		fmt.Sprintf("A worker applied to your %s booking.", b.ServiceType))
	return app, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error) {
	app, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() || isApplicant(p, app) {
		return app, nil
	}
	b, err := s.bookings.GetByID(ctx, app.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil || !ownsBooking(p, b) {
		return nil, domain.ErrForbidden
	}
	return app, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, bookingID *uuid.UUID, status string, page domain.Page) ([]domain.Application, error) {
	f := domain.ApplicationFilter{BookingID: bookingID, Page: page.Normalize()}
	if status != "" {
		f.Status = domain.ApplicationStatus(status)
	}
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleWorker:
		f.WorkerID = &p.SubjectID
	case domain.RoleHomeowner:
		f.HomeownerID = &p.SubjectID
	default:
		return nil, domain.ErrForbidden
	}

	apps, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// Accept accepts one application, rejects the other pending ones and assigns
// the booking to the worker, all in one transaction. The booking row is locked
// before any application row, the same order RejectSiblings takes.
func (s *Service) Accept(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error) {
	var (
		app      *domain.Application
		booking  *domain.Booking
		rejected []uuid.UUID
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		target, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if target == nil {
			return domain.ErrNotFound
		}
		if booking, err = s.bookings.GetForUpdate(ctx, target.BookingID); err != nil {
			return err
		}
		if booking == nil {
			return domain.ErrNotFound
		}
		if app, err = s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if app == nil {
			return domain.ErrNotFound
		}
		if !p.IsAdmin() && !ownsBooking(p, booking) {
			return domain.ErrForbidden
		}
		if app.Status != domain.ApplicationPending || booking.Status != domain.BookingPending {
			return domain.ErrInvalidTransition
		}

		if err = s.repo.UpdateStatus(ctx, id, domain.ApplicationPending, domain.ApplicationAccepted); err != nil {
			return err
		}
		if rejected, err = s.repo.RejectSiblings(ctx, app.BookingID, id); err != nil {
			return err
		}
		return s.bookings.UpdateStatus(ctx, booking.ID, domain.BookingPending, domain.BookingAssigned, &app.WorkerID)
	})
	if err != nil {
		zap.L().Error("can't accept application", zap.Error(err), zap.String("application_id", id.String()))
		return nil, err
	}
	app.Status = domain.ApplicationAccepted

	s.notify(ctx, domain.RoleWorker, app.WorkerID, "Application Accepted",
		fmt.Sprintf("Your application for the %s booking was accepted.", booking.ServiceType))
	for _, workerID := range rejected {
		s.notify(ctx, domain.RoleWorker, workerID, "Application Rejected",
			fmt.Sprintf("The %s booking was given to another worker.", booking.ServiceType))
	}
	zap.L().Info("application accepted", zap.String("application_id", id.String()),
		zap.Int("rejected", len(rejected)))
	return app, nil
}

func (s *Service) Reject(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error) {
	app, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, app.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if !p.IsAdmin() && !ownsBooking(p, b) {
		return nil, domain.ErrForbidden
	}
	if err := s.move(ctx, app, domain.ApplicationRejected); err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleWorker, app.WorkerID, "Application Rejected",
		fmt.Sprintf("Your application for the %s booking was not accepted.", b.ServiceType))
	return app, nil
}

// Withdraw lets a worker take back a pending application.
func (s *Service) Withdraw(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error) {
	app, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isApplicant(p, app) {
		return nil, domain.ErrForbidden
	}
	if err := s.move(ctx, app, domain.ApplicationWithdrawn); err != nil {
		return nil, err
	}
	return app, nil
}

// Delete removes an application while it is still pending.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	app, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && !isApplicant(p, app) {
		return domain.ErrForbidden
	}
	if app.Status != domain.ApplicationPending {
		return domain.ErrInvalidTransition
	}
	deleted, err := s.repo.DeletePending(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrConflict
	}
	return nil
}

func (s *Service) move(ctx context.Context, app *domain.Application, to domain.ApplicationStatus) error {
	if !app.Status.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, app.ID, app.Status, to); err != nil {
		zap.L().Error("can't change application status", zap.Error(err),
			zap.String("application_id", app.ID.String()), zap.String("status", string(to)))
		return err
	}
	app.Status = to
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrNotFound
	}
	return app, nil
}

func isApplicant(p *auth.Principal, app *domain.Application) bool {
	return p.Is(domain.RoleWorker) && app.WorkerID == p.SubjectID
}

func ownsBooking(p *auth.Principal, b *domain.Booking) bool {
	return p.Is(domain.RoleHomeowner) && b.HomeownerID == p.SubjectID
}

func (s *Service) notify(ctx context.Context, role domain.Role, subjectID uuid.UUID, title, message string) {
	userID, err := s.directory.UserIDForSubject(ctx, role, subjectID)
	if err != nil {
		zap.L().Warn("can't resolve notification recipient", zap.Error(err), zap.String("subject_id", subjectID.String()))
		return
	}
	s.notifier.Notify(ctx, userID, notifyservice.KindApplication, title, message)
}
