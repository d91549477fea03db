package bookingservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/fieldmap"
	"github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/fees"
)

const dateLayout = "2006-01-02"

type Repo interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus, workerID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Directory resolves role row ids to auth user ids for notifications.
type Directory interface {
	UserIDForSubject(ctx context.Context, role domain.Role, subjectID uuid.UUID) (uuid.UUID, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string)
}

type Service struct {
	repo      Repo
	directory Directory
	notifier  Notifier
}

func New(repo Repo, directory Directory, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
	}
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, req dto.CreateBookingRequestDTO) (*domain.Booking, error) {
	if !p.Is(domain.RoleHomeowner) || p.SubjectID == uuid.Nil {
		return nil, domain.ErrForbidden
	}
	date, err := time.Parse(dateLayout, req.BookingDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid value for bookingDate", "bookingDate")
	}

	booking, err := s.repo.Create(ctx, &domain.Booking{
		HomeownerID:     p.SubjectID,
		WorkerID:        req.WorkerID,
		ServiceType:     req.ServiceType,
		Description:     req.Description,
		BookingDate:     date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Address:         req.Address,
		Amount:          req.Amount,
		Status:          domain.BookingPending,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		zap.L().Error("can't create booking", zap.Error(err), zap.String("homeowner_id", p.SubjectID.String()))
		return nil, err
	}

	if booking.WorkerID != nil {
		s.notify(ctx, domain.RoleWorker, *booking.WorkerID, "New Booking Request",
			fmt.Sprintf("You have a new %s booking request for %s.", booking.ServiceType, booking.BookingDate.Format(dateLayout)))
	}
	zap.L().Info("booking created", zap.String("booking_id", booking.ID.String()))
	return booking, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, b) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

// List returns the caller's bookings. Workers also see pending bookings that
// nobody holds yet.
func (s *Service) List(ctx context.Context, p *auth.Principal, status string, page domain.Page) ([]domain.Booking, error) {
	f := domain.BookingFilter{Page: page.Normalize()}
	if status != "" {
		st, err := fieldmap.BookingStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}

	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleHomeowner:
		f.HomeownerID = &p.SubjectID
	case domain.RoleWorker:
		f.WorkerID = &p.SubjectID
		f.OpenForWorkers = true
	default:
		return nil, domain.ErrForbidden
	}

	bookings, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Update edits the details of a pending booking. Admins may edit any booking
// that is not finished.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, req dto.UpdateBookingRequestDTO) (*domain.Booking, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !ownedBy(p, b) {
		return nil, domain.ErrForbidden
	}
	if b.Status != domain.BookingPending && !(p.IsAdmin() && b.Status.Open()) {
		return nil, domain.ErrInvalidTransition
	}

	if req.BookingDate != nil {
		date, err := time.Parse(dateLayout, *req.BookingDate)
		if err != nil {
			return nil, domain.NewValidationError("invalid value for bookingDate", "bookingDate")
		}
		b.BookingDate = date
	}
	set(&b.ServiceType, req.ServiceType)
	set(&b.Description, req.Description)
	set(&b.StartTime, req.StartTime)
	set(&b.EndTime, req.EndTime)
	set(&b.Address, req.Address)
	set(&b.SpecialRequests, req.SpecialRequests)
	if req.Amount != nil {
		b.Amount = *req.Amount
	}

	return s.repo.Update(ctx, b)
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Accept lets the worker a booking was addressed to take it.
func (s *Service) Accept(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error) {
	return s.Transition(ctx, p, id, domain.BookingAssigned, nil)
}

func (s *Service) Assign(ctx context.Context, p *auth.Principal, id, workerID uuid.UUID) (*domain.Booking, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.Transition(ctx, p, id, domain.BookingAssigned, &workerID)
}

func (s *Service) Cancel(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error) {
	return s.Transition(ctx, p, id, domain.BookingCancelled, nil)
}

func (s *Service) Start(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error) {
	return s.Transition(ctx, p, id, domain.BookingInProgress, nil)
}

func (s *Service) Complete(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error) {
	return s.Transition(ctx, p, id, domain.BookingCompleted, nil)
}

// SetStatus applies a status label through the same rules as the dedicated
// actions.
func (s *Service) SetStatus(ctx context.Context, p *auth.Principal, id uuid.UUID, label string) (*domain.Booking, error) {
	to, err := fieldmap.BookingStatus(label)
	if err != nil {
		return nil, err
	}
	return s.Transition(ctx, p, id, to, nil)
}

// Transition moves a booking along its state machine. Disputes are opened
// through the dispute service only.
func (s *Service) Transition(ctx context.Context, p *auth.Principal, id uuid.UUID, to domain.BookingStatus, workerID *uuid.UUID) (*domain.Booking, error) {
	if to == domain.BookingDisputed {
		return nil, domain.ErrInvalidTransition
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, b) || !mayMove(p, b, to) {
		return nil, domain.ErrForbidden
	}
	if !b.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}

	assign := workerID
	if to == domain.BookingAssigned && assign == nil {
		if b.WorkerID == nil {
			return nil, domain.MissingFields("workerId")
		}
		assign = b.WorkerID
	}
	if err := s.repo.UpdateStatus(ctx, id, b.Status, to, assign); err != nil {
		zap.L().Error("can't change booking status", zap.Error(err),
			zap.String("booking_id", id.String()), zap.String("status", string(to)))
		return nil, err
	}
	b.Status = to
	if assign != nil {
		b.WorkerID = assign
	}

	s.notifyParties(ctx, p, b)
	return b, nil
}

// Fees returns the fee split of the booking amount.
func (s *Service) Fees(ctx context.Context, p *auth.Principal, id uuid.UUID) (*dto.FeesResponseDTO, error) {
	b, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	split := fees.Split(b.Amount)
	return &dto.FeesResponseDTO{
		Amount:      split.Amount.InexactFloat64(),
		PlatformFee: split.PlatformFee.InexactFloat64(),
		WelfareFund: split.WelfareFund.InexactFloat64(),
		Insurance:   split.Insurance.InexactFloat64(),
		Tax:         split.Tax.InexactFloat64(),
		WorkerEarns: split.WorkerEarns.InexactFloat64(),
	}, nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func ownedBy(p *auth.Principal, b *domain.Booking) bool {
	return p.Is(domain.RoleHomeowner) && b.HomeownerID == p.SubjectID
}

func visible(p *auth.Principal, b *domain.Booking) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleHomeowner:
		return ownedBy(p, b)
	case domain.RoleWorker:
		return b.AssignedTo(p.SubjectID) || (b.WorkerID == nil && b.Status == domain.BookingPending)
	}
	return false
}

func mayMove(p *auth.Principal, b *domain.Booking, to domain.BookingStatus) bool {
	if p.IsAdmin() {
		return true
	}
	switch to {
	case domain.BookingAssigned, domain.BookingInProgress:
		return p.Is(domain.RoleWorker) && b.AssignedTo(p.SubjectID)
	case domain.BookingCancelled, domain.BookingCompleted:
		return ownedBy(p, b)
	}
	return false
}

var statusTitles = map[domain.BookingStatus]string{
	domain.BookingAssigned:   "Booking Assigned",
	domain.BookingInProgress: "Booking Started",
	domain.BookingCompleted:  "Booking Completed",
	domain.BookingCancelled:  "Booking Cancelled",
}

// notifyParties tells the homeowner and the worker about a status change,
// skipping whoever made it.
func (s *Service) notifyParties(ctx context.Context, actor *auth.Principal, b *domain.Booking) {
	title := statusTitles[b.Status]
	message := fmt.Sprintf("The %s booking on %s is now %s.",
		b.ServiceType, b.BookingDate.Format(dateLayout), strings.ReplaceAll(string(b.Status), "_", " "))

	if !(actor.Is(domain.RoleHomeowner) && actor.SubjectID == b.HomeownerID) {
		s.notify(ctx, domain.RoleHomeowner, b.HomeownerID, title, message)
	}
	if b.WorkerID != nil && !(actor.Is(domain.RoleWorker) && actor.SubjectID == *b.WorkerID) {
		s.notify(ctx, domain.RoleWorker, *b.WorkerID, title, message)
	}
}

func (s *Service) notify(ctx context.Context, role domain.Role, subjectID uuid.UUID, title, message string) {
	userID, err := s.directory.UserIDForSubject(ctx, role, subjectID)
	if err != nil {
		zap.L().Warn("can't resolve notification recipient", zap.Error(err),
			zap.String("role", string(role)), zap.String("subject_id", subjectID.String()))
		return
	}
	s.notifier.Notify(ctx, userID, notifyservice.KindBooking, title, message)
}
