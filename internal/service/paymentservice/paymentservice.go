// Package paymentservice starts payments with PayPack or Flutterwave and
// moves them through their status machine once the gateway confirms.
package paymentservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/fieldmap"
	"github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/flutterwave"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/paypack"
	"github.com/divinecia/Househelp-sub000/pkg/validate"
)

const (
	GatewayPaypack     = "paypack"
	GatewayFlutterwave = "flutterwave"

	Currency = "RWF"
)

type Repo interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByTxRef(ctx context.Context, txRef string) (*domain.Payment, error)
	GetByGatewayRef(ctx context.Context, gateway, ref string) (*domain.Payment, error)
	List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error)
	FindPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus, gatewayRef string) error
	UpdateDetails(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
}

type BookingRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
}

type Directory interface {
	UserIDForSubject(ctx context.Context, role domain.Role, subjectID uuid.UUID) (uuid.UUID, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string)
}

// MobileMoney is the PayPack side of the service.
type MobileMoney interface {
	CashIn(ctx context.Context, phone string, amount float64) (*paypack.Transaction, error)
	Find(ctx context.Context, ref string) (*paypack.Transaction, error)
	ValidWebhook(signature string, body []byte) bool
}

// Checkout is the Flutterwave side of the service.
type Checkout interface {
	CreatePaymentLink(ctx context.Context, req flutterwave.PaymentRequest) (string, error)
	VerifyByReference(ctx context.Context, txRef string) (*flutterwave.Transaction, error)
	Refund(ctx context.Context, transactionID int64, amount float64) error
	ValidWebhook(header string) bool
}

type Service struct {
	repo        Repo
	bookings    BookingRepo
	directory   Directory
	notifier    Notifier
	mobile      MobileMoney
	checkout    Checkout
	redirectURL string
	now         func() time.Time
}

// New builds the service. mobile and checkout may be nil when the gateway is
// not configured; methods that need them are then refused.
func New(repo Repo, bookings BookingRepo, directory Directory, notifier Notifier, mobile MobileMoney, checkout Checkout, redirectURL string) *Service {
	return &Service{
		repo:        repo,
		bookings:    bookings,
		directory:   directory,
		notifier:    notifier,
		mobile:      mobile,
		checkout:    checkout,
		redirectURL: redirectURL,
		now:         time.Now,
	}
}

var (
	errMethodUnavailable = domain.NewValidationError("Payment method is not available", "method")
	errCashOffline       = domain.NewValidationError("Cash payments are settled in person", "method")
	errBookingNotPayable = domain.NewValidationError("Booking cannot be paid", "bookingId")
)

// Initiate starts a payment for a booking owned by the caller.
func (s *Service) Initiate(ctx context.Context, p *auth.Principal, req dto.InitiatePaymentRequestDTO) (*dto.InitiatePaymentResponseDTO, error) {
	if !p.Is(domain.RoleHomeowner) {
		return nil, domain.ErrForbidden
	}
	method, err := fieldmap.PaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if b.HomeownerID != p.SubjectID {
		return nil, domain.ErrForbidden
	}
	if b.Status == domain.BookingCancelled {
		return nil, errBookingNotPayable
	}
	if err := s.ensureNoOpenPayment(ctx, b.ID); err != nil {
		return nil, err
	}

	pay := &domain.Payment{
		BookingID:   b.ID,
		HomeownerID: b.HomeownerID,
		WorkerID:    b.WorkerID,
		Amount:      b.Amount,
		Currency:    Currency,
		Status:      domain.PaymentPending,
		Method:      method,
		TxRef:       s.newTxRef(),
		Phone:       req.Phone,
	}

	var link string
	switch method {
	case domain.MethodMobileMoney:
		if s.mobile == nil {
			return nil, errMethodUnavailable
		}
		if req.Phone == "" {
			return nil, domain.MissingFields("phone")
		}
		tx, err := s.mobile.CashIn(ctx, req.Phone, pay.Amount)
		if err != nil {
			zap.L().Error("paypack cash-in failed", zap.Error(err), zap.String("tx_ref", pay.TxRef))
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		pay.Gateway, pay.GatewayRef = GatewayPaypack, tx.Ref
	case domain.MethodCard, domain.MethodBankTransfer:
		if s.checkout == nil {
			return nil, errMethodUnavailable
		}
		if method == domain.MethodCard {
			digits := strings.ReplaceAll(req.CardNumber, " ", "")
			if digits == "" {
				return nil, domain.MissingFields("cardNumber")
			}
			if !validate.IsLuhn(digits) {
				return nil, domain.NewValidationError("Invalid card number", "cardNumber")
			}
			pay.CardLast4 = digits[len(digits)-4:]
		}
		link, err = s.checkout.CreatePaymentLink(ctx, flutterwave.PaymentRequest{
			TxRef:          pay.TxRef,
			Amount:         pay.Amount,
			Currency:       pay.Currency,
			RedirectURL:    s.redirectURL,
			PaymentOptions: checkoutOption(method),
			Customer:       flutterwave.Customer{Email: p.Email, PhoneNumber: req.Phone},
			Title:          "HouseHelp " + b.ServiceType,
		})
		if err != nil {
			zap.L().Error("flutterwave payment link failed", zap.Error(err), zap.String("tx_ref", pay.TxRef))
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		pay.Gateway = GatewayFlutterwave
	default:
		return nil, errCashOffline
	}

	created, err := s.repo.Create(ctx, pay)
	if err != nil {
		return nil, err
	}
	zap.L().Info("payment initiated", zap.String("payment_id", created.ID.String()),
		zap.String("gateway", created.Gateway), zap.Float64("amount", created.Amount))
	s.notifyStatus(ctx, created, domain.PaymentPending)

	return &dto.InitiatePaymentResponseDTO{
		PaymentID:   created.ID,
		TxRef:       created.TxRef,
		Status:      string(created.Status),
		PaymentLink: link,
	}, nil
}

// ensureNoOpenPayment refuses a new payment while the booking has a settled
// one or one still waiting on its gateway. A pending payment is re-checked
// first so an abandoned checkout does not block the booking forever.
func (s *Service) ensureNoOpenPayment(ctx context.Context, bookingID uuid.UUID) error {
	existing, err := s.repo.List(ctx, domain.PaymentFilter{BookingID: &bookingID, Page: domain.Page{Limit: domain.MaxLimit}})
	if err != nil {
		return err
	}
	for i := range existing {
		pay := &existing[i]
		switch pay.Status {
		case domain.PaymentSuccess:
			return domain.ErrConflict
		case domain.PaymentPending:
			if err := s.Sync(ctx, pay); err != nil {
				zap.L().Warn("can't re-check pending payment", zap.Error(err), zap.String("payment_id", pay.ID.String()))
				return domain.ErrConflict
			}
			if pay.Status == domain.PaymentPending || pay.Status == domain.PaymentSuccess {
				return domain.ErrConflict
			}
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Payment, error) {
	pay, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(p, pay) {
		return nil, domain.ErrForbidden
	}
	return pay, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, bookingID *uuid.UUID, status string, page domain.Page) ([]domain.Payment, error) {
	f := domain.PaymentFilter{BookingID: bookingID, Page: page.Normalize()}
	if status != "" {
		f.Status = domain.PaymentStatus(status)
	}
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleHomeowner:
		f.HomeownerID = &p.SubjectID
	case domain.RoleWorker:
		f.WorkerID = &p.SubjectID
	default:
		return nil, domain.ErrForbidden
	}
	payments, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// UpdateDetails lets an admin correct the method, phone or gateway reference.
// Status is never written here.
func (s *Service) UpdateDetails(ctx context.Context, p *auth.Principal, id uuid.UUID, req dto.UpdatePaymentRequestDTO) (*domain.Payment, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	pay, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Method != nil {
		if pay.Method, err = fieldmap.PaymentMethod(*req.Method); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil {
		pay.Phone = *req.Phone
	}
	if req.GatewayRef != nil {
		pay.GatewayRef = *req.GatewayRef
	}
	return s.repo.UpdateDetails(ctx, pay)
}

// Verify asks the gateway for the payment's state and applies it.
func (s *Service) Verify(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Payment, error) {
	pay, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !(p.Is(domain.RoleHomeowner) && pay.HomeownerID == p.SubjectID) {
		return nil, domain.ErrForbidden
	}
	if err := s.Sync(ctx, pay); err != nil {
		return nil, err
	}
	return pay, nil
}

// Pending lists payments still waiting on their gateway.
func (s *Service) Pending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Payment, error) {
	return s.repo.FindPending(ctx, s.now().Add(-olderThan), limit)
}

// Sync verifies a pending payment with its gateway and stores the outcome.
// pay is updated in place.
func (s *Service) Sync(ctx context.Context, pay *domain.Payment) error {
	if pay.Status != domain.PaymentPending {
		return nil
	}
	to, ref, err := s.lookup(ctx, pay)
	if err != nil {
		return err
	}
	return s.apply(ctx, pay, to, ref)
}

// HandleFlutterwaveWebhook checks the verif-hash header, then re-verifies the
// referenced transaction before touching the payment.
func (s *Service) HandleFlutterwaveWebhook(ctx context.Context, hash string, body []byte) error {
	if s.checkout == nil || !s.checkout.ValidWebhook(hash) {
		return domain.ErrUnauthorized
	}
	var event flutterwave.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Data.TxRef == "" {
		return domain.NewValidationError("invalid webhook payload")
	}
	pay, err := s.repo.GetByTxRef(ctx, event.Data.TxRef)
	if err != nil {
		return err
	}
	if pay == nil {
		zap.L().Warn("flutterwave webhook for unknown payment", zap.String("tx_ref", event.Data.TxRef))
		return nil
	}
	return s.Sync(ctx, pay)
}

// HandlePaypackWebhook checks the body signature, then re-reads the
// transaction from PayPack before touching the payment.
func (s *Service) HandlePaypackWebhook(ctx context.Context, signature string, body []byte) error {
	if s.mobile == nil || !s.mobile.ValidWebhook(signature, body) {
		return domain.ErrUnauthorized
	}
	var event paypack.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Data.Ref == "" {
		return domain.NewValidationError("invalid webhook payload")
	}
	pay, err := s.repo.GetByGatewayRef(ctx, GatewayPaypack, event.Data.Ref)
	if err != nil {
		return err
	}
	if pay == nil {
		zap.L().Warn("paypack webhook for unknown payment", zap.String("ref", event.Data.Ref))
		return nil
	}
	return s.Sync(ctx, pay)
}

// RefundBooking marks every successful payment of a booking refunded and
// returns the ones it changed. It only writes payment rows so it can run
// inside the caller's transaction; hand the result to SettleRefunds once
// that transaction has committed.
func (s *Service) RefundBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Payment, error) {
	paid, err := s.repo.List(ctx, domain.PaymentFilter{BookingID: &bookingID, Status: domain.PaymentSuccess})
	if err != nil {
		return nil, err
	}
	refunded := make([]domain.Payment, 0, len(paid))
	for i := range paid {
		pay := &paid[i]
		changed, err := s.store(ctx, pay, domain.PaymentRefunded, "")
		if err != nil {
			return nil, err
		}
		if changed {
			refunded = append(refunded, *pay)
		}
	}
	return refunded, nil
}

// SettleRefunds requests card refunds from Flutterwave and notifies the
// homeowner. amount bounds the total refunded across all payments; zero
// refunds each payment in full. Gateway failures are logged, not returned.
func (s *Service) SettleRefunds(ctx context.Context, refunded []domain.Payment, amount float64) {
	remaining := amount
	for i := range refunded {
		pay := &refunded[i]
		part := pay.Amount
		if amount > 0 {
			part = min(remaining, pay.Amount)
			remaining -= part
		}
		if part > 0 {
			s.refundAtGateway(ctx, pay, part)
		}
		s.notifyStatus(ctx, pay, domain.PaymentRefunded)
	}
}

func (s *Service) refundAtGateway(ctx context.Context, pay *domain.Payment, amount float64) {
	if pay.Gateway != GatewayFlutterwave || s.checkout == nil {
		return
	}
	txID, err := strconv.ParseInt(pay.GatewayRef, 10, 64)
	if err != nil {
		zap.L().Warn("payment has no flutterwave transaction id", zap.String("payment_id", pay.ID.String()))
		return
	}
	if err := s.checkout.Refund(ctx, txID, amount); err != nil {
		zap.L().Error("flutterwave refund failed", zap.Error(err), zap.String("payment_id", pay.ID.String()),
			zap.Float64("amount", amount))
	}
}

// lookup maps the gateway's view of a payment onto a status.
func (s *Service) lookup(ctx context.Context, pay *domain.Payment) (domain.PaymentStatus, string, error) {
	switch pay.Gateway {
	case GatewayFlutterwave:
		if s.checkout == nil {
			return pay.Status, "", errMethodUnavailable
		}
		tx, err := s.checkout.VerifyByReference(ctx, pay.TxRef)
		if err != nil {
			return pay.Status, "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		ref := strconv.FormatInt(tx.ID, 10)
		switch strings.ToLower(tx.Status) {
		case "successful":
			if tx.Amount < pay.Amount || !strings.EqualFold(tx.Currency, pay.Currency) {
				zap.L().Warn("flutterwave amount mismatch", zap.String("tx_ref", pay.TxRef),
					zap.Float64("expected", pay.Amount), zap.Float64("got", tx.Amount))
				return domain.PaymentFailed, ref, nil
			}
			return domain.PaymentSuccess, ref, nil
		case "failed":
			return domain.PaymentFailed, ref, nil
		case "cancelled":
			return domain.PaymentCancelled, ref, nil
		}
		return domain.PaymentPending, ref, nil
	case GatewayPaypack:
		if s.mobile == nil {
			return pay.Status, "", errMethodUnavailable
		}
		tx, err := s.mobile.Find(ctx, pay.GatewayRef)
		if errors.Is(err, paypack.ErrNoEvents) {
			return domain.PaymentPending, "", nil
		}
		if err != nil {
			return pay.Status, "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		switch strings.ToLower(tx.Status) {
		case "successful", "success":
			return domain.PaymentSuccess, "", nil
		case "failed":
			return domain.PaymentFailed, "", nil
		}
		return domain.PaymentPending, "", nil
	}
	return pay.Status, "", nil
}

// apply stores a status change and sends the matching notification.
func (s *Service) apply(ctx context.Context, pay *domain.Payment, to domain.PaymentStatus, gatewayRef string) error {
	changed, err := s.store(ctx, pay, to, gatewayRef)
	if err != nil || !changed {
		return err
	}
	s.notifyStatus(ctx, pay, to)
	return nil
}

// store writes a status change and reports whether this call made it. A lost
// compare-and-set means another path already applied it.
func (s *Service) store(ctx context.Context, pay *domain.Payment, to domain.PaymentStatus, gatewayRef string) (bool, error) {
	if to == pay.Status {
		return false, nil
	}
	if !pay.Status.CanTransitionTo(to) {
		return false, domain.ErrInvalidTransition
	}
	err := s.repo.UpdateStatus(ctx, pay.ID, pay.Status, to, gatewayRef)
	if errors.Is(err, domain.ErrConflict) {
		zap.L().Info("payment already updated", zap.String("payment_id", pay.ID.String()))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	zap.L().Info("payment status changed", zap.String("payment_id", pay.ID.String()),
		zap.String("from", string(pay.Status)), zap.String("to", string(to)))
	pay.Status = to
	if gatewayRef != "" {
		pay.GatewayRef = gatewayRef
	}
	return true, nil
}

var statusTitles = map[domain.PaymentStatus]string{
	domain.PaymentSuccess:   "Payment Successful",
	domain.PaymentFailed:    "Payment Failed",
	domain.PaymentPending:   "Payment Pending",
	domain.PaymentRefunded:  "Payment Refunded",
	domain.PaymentCancelled: "Payment Cancelled",
}

var statusMessages = map[domain.PaymentStatus]string{
	domain.PaymentSuccess:   "Your payment of %s %s was received.",
	domain.PaymentFailed:    "Your payment of %s %s failed. Please try again.",
	domain.PaymentPending:   "Your payment of %s %s is being processed.",
	domain.PaymentRefunded:  "Your payment of %s %s has been refunded.",
	domain.PaymentCancelled: "Your payment of %s %s was cancelled.",
}

// Message renders the notification text for a payment status.
func Message(status domain.PaymentStatus, amount float64, currency string) (string, string) {
	return statusTitles[status], fmt.Sprintf(statusMessages[status], strconv.FormatFloat(amount, 'f', -1, 64), currency)
}

func (s *Service) notifyStatus(ctx context.Context, pay *domain.Payment, status domain.PaymentStatus) {
	title, message := Message(status, pay.Amount, pay.Currency)
	s.notify(ctx, domain.RoleHomeowner, pay.HomeownerID, title, message)
	if status == domain.PaymentSuccess && pay.WorkerID != nil {
		s.notify(ctx, domain.RoleWorker, *pay.WorkerID, "Payment Received",
			fmt.Sprintf("A payment of %s %s was made for your booking.",
				strconv.FormatFloat(pay.Amount, 'f', -1, 64), pay.Currency))
	}
}

func (s *Service) notify(ctx context.Context, role domain.Role, subjectID uuid.UUID, title, message string) {
	userID, err := s.directory.UserIDForSubject(ctx, role, subjectID)
	if err != nil {
		zap.L().Warn("can't resolve notification recipient", zap.Error(err), zap.String("subject_id", subjectID.String()))
		return
	}
	s.notifier.Notify(ctx, userID, notifyservice.KindPayment, title, message)
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	pay, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		return nil, domain.ErrNotFound
	}
	return pay, nil
}

func (s *Service) newTxRef() string {
	return fmt.Sprintf("HH-%d-%s", s.now().Unix(), strings.ToUpper(uuid.NewString()[:8]))
}

func visible(p *auth.Principal, pay *domain.Payment) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleHomeowner:
		return pay.HomeownerID == p.SubjectID
	case domain.RoleWorker:
		return pay.WorkerID != nil && *pay.WorkerID == p.SubjectID
	}
	return false
}

func checkoutOption(m domain.PaymentMethod) string {
	if m == domain.MethodBankTransfer {
		return "banktransfer"
	}
	return "card"
}
