package balanceservice

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/fieldmap"
	"github.com/divinecia/Househelp-sub000/internal/pg"
	"github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/fees"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/paypack"
)

type BalanceRepo interface {
	GetWorkerBalance(ctx context.Context, workerID uuid.UUID) (*domain.Balance, error)
	LockWorkerBalance(ctx context.Context, workerID uuid.UUID) (*domain.Balance, error)
}

type WithdrawalRepo interface {
	CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	GetWithdrawals(ctx context.Context, f domain.WithdrawalFilter) ([]domain.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WithdrawalStatus, upd domain.WithdrawalUpdate) error
}

type Directory interface {
	UserIDForSubject(ctx context.Context, role domain.Role, subjectID uuid.UUID) (uuid.UUID, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string)
}

// Payout sends money to a worker's phone.
type Payout interface {
	CashOut(ctx context.Context, phone string, amount float64) (*paypack.Transaction, error)
}

type Service struct {
	balanceRepo    BalanceRepo
	withdrawalRepo WithdrawalRepo
	directory      Directory
	notifier       Notifier
	payout         Payout
	txManager      pg.TXManager
}

// New builds the service. payout may be nil, in which case processing a
// withdrawal only records the status change.
func New(balanceRepo BalanceRepo, withdrawalRepo WithdrawalRepo, directory Directory, notifier Notifier, payout Payout, txManager pg.TXManager) *Service {
	return &Service{
		balanceRepo:    balanceRepo,
		withdrawalRepo: withdrawalRepo,
		directory:      directory,
		notifier:       notifier,
		payout:         payout,
		txManager:      txManager,
	}
}

func (s *Service) GetBalance(ctx context.Context, p *auth.Principal) (*domain.Balance, error) {
	if !p.Is(domain.RoleWorker) {
		return nil, domain.ErrForbidden
	}
	balance, err := s.balanceRepo.GetWorkerBalance(ctx, p.SubjectID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	return balance, nil
}

// Withdraw files a withdrawal request. The balance check and the insert
// share one transaction holding the worker's row lock.
func (s *Service) Withdraw(ctx context.Context, p *auth.Principal, req dto.WithdrawalRequestDTO) (*domain.Withdrawal, error) {
	if !p.Is(domain.RoleWorker) {
		return nil, domain.ErrForbidden
	}
	method, err := fieldmap.PaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	if method == domain.MethodMobileMoney && req.Phone == "" {
		return nil, domain.MissingFields("phone")
	}

	fee, net := fees.WithdrawalFee(req.Amount)
	withdrawal := &domain.Withdrawal{
		WorkerID:  p.SubjectID,
		Amount:    req.Amount,
		Fee:       fee,
		NetAmount: net,
		Method:    method,
		Phone:     req.Phone,
		Status:    domain.WithdrawalPending,
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		balance, err := s.balanceRepo.LockWorkerBalance(ctx, p.SubjectID)
		if err != nil {
			return err
		}
		if req.Amount > balance.WithdrawableBalance {
			return domain.ErrInsufficientBalance
		}
		withdrawal, err = s.withdrawalRepo.CreateWithdrawal(ctx, withdrawal)
		return err
	})
	if err != nil {
		zap.L().Error("failed to create withdrawal", zap.Error(err), zap.String("worker_id", p.SubjectID.String()))
		return nil, err
	}

	s.notify(ctx, withdrawal, "Withdrawal Requested",
		fmt.Sprintf("Your withdrawal of %s RWF is awaiting approval.", amount(withdrawal.Amount)))
	return withdrawal, nil
}

func (s *Service) GetWithdrawals(ctx context.Context, p *auth.Principal, status string, page domain.Page) ([]domain.Withdrawal, error) {
	f := domain.WithdrawalFilter{Page: page.Normalize()}
	if status != "" {
		f.Status = domain.WithdrawalStatus(status)
	}
	switch {
	case p.IsAdmin():
	case p.Is(domain.RoleWorker):
		f.WorkerID = &p.SubjectID
	default:
		return nil, domain.ErrForbidden
	}
	withdrawals, err := s.withdrawalRepo.GetWithdrawals(ctx, f)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Withdrawal, error) {
	wd, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !(p.Is(domain.RoleWorker) && wd.WorkerID == p.SubjectID) {
		return nil, domain.ErrForbidden
	}
	return wd, nil
}

func (s *Service) Approve(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error) {
	wd, err := s.move(ctx, p, id, domain.WithdrawalApproved, domain.WithdrawalUpdate{AdminNotes: notes})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, wd, "Withdrawal Approved",
		fmt.Sprintf("Your withdrawal of %s RWF was approved.", amount(wd.Amount)))
	return wd, nil
}

func (s *Service) Reject(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error) {
	wd, err := s.move(ctx, p, id, domain.WithdrawalRejected, domain.WithdrawalUpdate{AdminNotes: notes})
	if err != nil {
		return nil, err
	}
	message := fmt.Sprintf("Your withdrawal of %s RWF was rejected.", amount(wd.Amount))
	if notes != "" {
		message += " " + notes
	}
	s.notify(ctx, wd, "Withdrawal Rejected", message)
	return wd, nil
}

// Process pays the net amount out through PayPack when the withdrawal goes
// to a phone and payouts are configured.
func (s *Service) Process(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	wd, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !wd.Status.CanTransitionTo(domain.WithdrawalProcessing) {
		return nil, domain.ErrInvalidTransition
	}

	upd := domain.WithdrawalUpdate{AdminNotes: notes}
	if s.payout != nil && wd.Method == domain.MethodMobileMoney && wd.Phone != "" {
		tx, err := s.payout.CashOut(ctx, wd.Phone, wd.NetAmount)
		if err != nil {
			zap.L().Error("paypack cash-out failed", zap.Error(err), zap.String("withdrawal_id", id.String()))
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		upd.GatewayRef = tx.Ref
	}
	if err := s.update(ctx, p, wd, domain.WithdrawalProcessing, upd); err != nil {
		return nil, err
	}
	s.notify(ctx, wd, "Withdrawal Processing",
		fmt.Sprintf("%s RWF is on its way to you.", amount(wd.NetAmount)))
	return wd, nil
}

func (s *Service) Complete(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error) {
	wd, err := s.move(ctx, p, id, domain.WithdrawalCompleted, domain.WithdrawalUpdate{AdminNotes: notes})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, wd, "Withdrawal Completed",
		fmt.Sprintf("Your withdrawal of %s RWF has been paid.", amount(wd.NetAmount)))
	return wd, nil
}

func (s *Service) move(ctx context.Context, p *auth.Principal, id uuid.UUID, to domain.WithdrawalStatus, upd domain.WithdrawalUpdate) (*domain.Withdrawal, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	wd, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, p, wd, to, upd); err != nil {
		return nil, err
	}
	return wd, nil
}

func (s *Service) update(ctx context.Context, p *auth.Principal, wd *domain.Withdrawal, to domain.WithdrawalStatus, upd domain.WithdrawalUpdate) error {
	if !wd.Status.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	upd.ProcessedBy = &p.UserID
	if err := s.withdrawalRepo.UpdateStatus(ctx, wd.ID, wd.Status, to, upd); err != nil {
		zap.L().Error("failed to update withdrawal", zap.Error(err),
			zap.String("withdrawal_id", wd.ID.String()), zap.String("status", string(to)))
		return err
	}
	wd.Status = to
	wd.ProcessedBy = upd.ProcessedBy
	if upd.AdminNotes != "" {
		wd.AdminNotes = upd.AdminNotes
	}
	if upd.GatewayRef != "" {
		wd.GatewayRef = upd.GatewayRef
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	wd, err := s.withdrawalRepo.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if wd == nil {
		return nil, domain.ErrNotFound
	}
	return wd, nil
}

func (s *Service) notify(ctx context.Context, wd *domain.Withdrawal, title, message string) {
	userID, err := s.directory.UserIDForSubject(ctx, domain.RoleWorker, wd.WorkerID)
	if err != nil {
		zap.L().Warn("can't resolve withdrawal owner", zap.Error(err), zap.String("worker_id", wd.WorkerID.String()))
		return
	}
	s.notifier.Notify(ctx, userID, notifyservice.KindWithdrawal, title, message)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
