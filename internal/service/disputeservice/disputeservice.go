package disputeservice

import (
	"context"
	"errors"
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
	Create(ctx context.Context, d *domain.Dispute) (*domain.Dispute, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dispute, error)
	List(ctx context.Context, f domain.DisputeFilter) ([]domain.Dispute, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.DisputeStatus, upd domain.DisputeUpdate) error
}

type BookingRepo interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus, workerID *uuid.UUID) error
}

type Directory interface {
	UserIDForSubject(ctx context.Context, role domain.Role, subjectID uuid.UUID) (uuid.UUID, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string)
}

// Refunder reverses the settled payments of a booking. RefundBooking only
// writes rows; SettleRefunds talks to the gateway and must run after commit.
type Refunder interface {
	RefundBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Payment, error)
	SettleRefunds(ctx context.Context, refunded []domain.Payment, amount float64)
}

type Service struct {
	repo      Repo
	bookings  BookingRepo
	directory Directory
	notifier  Notifier
	refunder  Refunder
	txManager pg.TXManager
}

func New(repo Repo, bookings BookingRepo, directory Directory, notifier Notifier, refunder Refunder, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		bookings:  bookings,
		directory: directory,
		notifier:  notifier,
		refunder:  refunder,
		txManager: txManager,
	}
}

// Open raises a dispute on an active booking and freezes the booking in the
// disputed status. Only the homeowner or the assigned worker may open one.
func (s *Service) Open(ctx context.Context, p *auth.Principal, req dto.OpenDisputeRequestDTO) (*domain.Dispute, error) {
	var dispute *domain.Dispute
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}

		var respondent uuid.UUID
		switch {
		case p.Is(domain.RoleHomeowner) && b.HomeownerID == p.SubjectID:
			if b.WorkerID == nil {
				return domain.NewValidationError("Booking has no worker to dispute", "bookingId")
			}
			respondent, err = s.directory.UserIDForSubject(ctx, domain.RoleWorker, *b.WorkerID)
		case p.Is(domain.RoleWorker) && b.AssignedTo(p.SubjectID):
			respondent, err = s.directory.UserIDForSubject(ctx, domain.RoleHomeowner, b.HomeownerID)
		default:
			return domain.ErrForbidden
		}
		if err != nil {
			return err
		}
		if !b.Status.Open() {
			return domain.ErrInvalidTransition
		}

		dispute, err = s.repo.Create(ctx, &domain.Dispute{
			BookingID:    b.ID,
			RaisedBy:     p.UserID,
			RespondentID: respondent,
			Reason:       req.Reason,
			Description:  req.Description,
			Status:       domain.DisputeOpen,
		})
		if err != nil {
			return err
		}
		return s.bookings.UpdateStatus(ctx, b.ID, b.Status, domain.BookingDisputed, nil)
	})
	if err != nil {
		zap.L().Error("can't open dispute", zap.Error(err), zap.String("booking_id", req.BookingID.String()))
		return nil, err
	}

	s.notifier.Notify(ctx, dispute.RespondentID, notifyservice.KindDispute, "Dispute Opened",
		fmt.Sprintf("A dispute was opened on your booking: %s", dispute.Reason))
	return dispute, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Dispute, error) {
	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !isParty(p, d) {
		return nil, domain.ErrForbidden
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, bookingID *uuid.UUID, status string, page domain.Page) ([]domain.Dispute, error) {
	f := domain.DisputeFilter{BookingID: bookingID, Page: page.Normalize()}
	if status != "" {
		f.Status = domain.DisputeStatus(status)
	}
	if !p.IsAdmin() {
		f.PartyID = &p.UserID
	}
	disputes, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	return disputes, nil
}

func (s *Service) Investigate(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error) {
	d, err := s.move(ctx, p, id, domain.DisputeInvestigating, domain.DisputeUpdate{Notes: notes})
	if err != nil {
		return nil, err
	}
	s.notifyParties(ctx, d, "Dispute Under Investigation", "An administrator is reviewing your dispute.")
	return d, nil
}

func (s *Service) Escalate(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error) {
	d, err := s.move(ctx, p, id, domain.DisputeEscalated, domain.DisputeUpdate{Notes: notes})
	if err != nil {
		return nil, err
	}
	s.notifyParties(ctx, d, "Dispute Escalated", "Your dispute has been escalated for further review.")
	return d, nil
}

// Close dismisses a dispute and releases the booking as completed.
func (s *Service) Close(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error) {
	var d *domain.Dispute
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.move(ctx, p, id, domain.DisputeClosed, domain.DisputeUpdate{Notes: notes, ResolvedBy: &p.UserID}); err != nil {
			return err
		}
		return s.release(ctx, d.BookingID, domain.BookingCompleted)
	})
	if err != nil {
		return nil, err
	}
	s.notifyParties(ctx, d, "Dispute Closed", "Your dispute has been closed.")
	return d, nil
}

// Resolve records the outcome. Refund actions reverse the booking's settled
// payments and cancel the booking; other actions complete it.
func (s *Service) Resolve(ctx context.Context, p *auth.Principal, id uuid.UUID, req dto.ResolveDisputeRequestDTO) (*domain.Dispute, error) {
	action, err := domain.ParseResolutionAction(req.Action)
	if err != nil {
		return nil, err
	}
	upd := domain.DisputeUpdate{Action: action, Notes: req.Notes, ResolvedBy: &p.UserID}
	switch action {
	case domain.ResolutionRefundPartial:
		if req.RefundAmount <= 0 {
			return nil, domain.MissingFields("refundAmount")
		}
		upd.RefundAmount = req.RefundAmount
	case domain.ResolutionRefundFull:
	default:
		if req.RefundAmount > 0 {
			return nil, domain.NewValidationError("refundAmount only applies to refunds", "refundAmount")
		}
	}

	var (
		d        *domain.Dispute
		refunded []domain.Payment
	)
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.move(ctx, p, id, domain.DisputeResolved, upd); err != nil {
			return err
		}
		if !action.Refunds() {
			return s.release(ctx, d.BookingID, domain.BookingCompleted)
		}
		if refunded, err = s.refunder.RefundBooking(ctx, d.BookingID); err != nil {
			return err
		}
		return s.release(ctx, d.BookingID, domain.BookingCancelled)
	})
	if err != nil {
		zap.L().Error("can't resolve dispute", zap.Error(err), zap.String("dispute_id", id.String()))
		return nil, err
	}
	if len(refunded) > 0 {
		s.refunder.SettleRefunds(ctx, refunded, upd.RefundAmount)
	}

	d.ResolutionAction = action
	d.ResolutionNotes = req.Notes
	d.RefundAmount = upd.RefundAmount
	message := fmt.Sprintf("Your dispute was resolved: %s.", action)
	if req.Notes != "" {
		message += " " + req.Notes
	}
	s.notifyParties(ctx, d, "Dispute Resolved", message)
	return d, nil
}

func (s *Service) move(ctx context.Context, p *auth.Principal, id uuid.UUID, to domain.DisputeStatus, upd domain.DisputeUpdate) (*domain.Dispute, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}
	if upd.RefundAmount == 0 {
		upd.RefundAmount = d.RefundAmount
	}
	if err := s.repo.UpdateStatus(ctx, id, d.Status, to, upd); err != nil {
		return nil, err
	}
	d.Status = to
	return d, nil
}

// release takes the booking out of the disputed status. A booking that was
// already moved by someone else is left alone.
func (s *Service) release(ctx context.Context, bookingID uuid.UUID, to domain.BookingStatus) error {
	err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingDisputed, to, nil)
	if errors.Is(err, domain.ErrConflict) {
		zap.L().Warn("booking no longer disputed", zap.String("booking_id", bookingID.String()))
		return nil
	}
	return err
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (s *Service) notifyParties(ctx context.Context, d *domain.Dispute, title, message string) {
	for _, userID := range []uuid.UUID{d.RaisedBy, d.RespondentID} {
		if userID != uuid.Nil {
			s.notifier.Notify(ctx, userID, notifyservice.KindDispute, title, message)
		}
	}
}

func isParty(p *auth.Principal, d *domain.Dispute) bool {
	return d.RaisedBy == p.UserID || d.RespondentID == p.UserID
}
