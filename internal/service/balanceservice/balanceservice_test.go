package balanceservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/pg"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/paypack"
)

type mocks struct {
	balanceRepo    *MockBalanceRepo
	withdrawalRepo *MockWithdrawalRepo
	directory      *MockDirectory
	notifier       *MockNotifier
	payout         *MockPayout
	tx             *pg.MockTXManager
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		balanceRepo:    NewMockBalanceRepo(ctrl),
		withdrawalRepo: NewMockWithdrawalRepo(ctrl),
		directory:      NewMockDirectory(ctrl),
		notifier:       NewMockNotifier(ctrl),
		payout:         NewMockPayout(ctrl),
		tx:             pg.NewMockTXManager(ctrl),
	}
	service := New(m.balanceRepo, m.withdrawalRepo, m.directory, m.notifier, m.payout, m.tx)
	return service, m
}

func (m *mocks) expectNotify(title string) {
	m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleWorker, worker.SubjectID).Return(worker.UserID, nil)
	m.notifier.EXPECT().Notify(gomock.Any(), worker.UserID, "withdrawal", title, gomock.Any())
}

var (
	admin  = &auth.Principal{UserID: uuid.New(), Role: domain.RoleAdmin, SubjectID: uuid.New()}
	worker = &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker, SubjectID: uuid.New()}
)

func withdrawal(status domain.WithdrawalStatus) *domain.Withdrawal {
	return &domain.Withdrawal{
		ID:        uuid.New(),
		WorkerID:  worker.SubjectID,
		Amount:    5000,
		Fee:       100,
		NetAmount: 4900,
		Method:    domain.MethodMobileMoney,
		Phone:     "0788123456",
		Status:    status,
	}
}

func TestGetBalance(t *testing.T) {
	tests := []struct {
		name            string
		principal       *auth.Principal
		prepareMock     func(m *mocks)
		expectedBalance *domain.Balance
		expectedError   error
	}{
		{
			name:      "Retrieve balance successfully",
			principal: worker,
			prepareMock: func(m *mocks) {
				m.balanceRepo.EXPECT().GetWorkerBalance(gomock.Any(), worker.SubjectID).
					Return(domain.NewBalance(worker.SubjectID, 10000, 2000, 1000), nil)
			},
			expectedBalance: &domain.Balance{
				WorkerID:            worker.SubjectID,
				TotalEarned:         10000,
				TotalWithdrawn:      2000,
				AvailableBalance:    8000,
				PendingWithdrawals:  1000,
				WithdrawableBalance: 7000,
			},
		},
		{
			name:      "Error retrieving balance",
			principal: worker,
			prepareMock: func(m *mocks) {
				m.balanceRepo.EXPECT().GetWorkerBalance(gomock.Any(), worker.SubjectID).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
		{
			name:          "Only workers have a balance",
			principal:     admin,
			expectedError: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			balance, err := service.GetBalance(context.Background(), tt.principal)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedBalance, balance)
			}
		})
	}
}

func TestWithdraw(t *testing.T) {
	req := dto.WithdrawalRequestDTO{Amount: 5000, Method: "mobile_money", Phone: "0788123456"}

	tests := []struct {
		name          string
		req           dto.WithdrawalRequestDTO
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name: "Successful withdrawal",
			req:  req,
			prepareMock: func(m *mocks) {
				m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					return fn(ctx)
				})
				m.balanceRepo.EXPECT().LockWorkerBalance(gomock.Any(), worker.SubjectID).
					Return(domain.NewBalance(worker.SubjectID, 10000, 0, 0), nil)
				m.withdrawalRepo.EXPECT().CreateWithdrawal(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, wd *domain.Withdrawal) (*domain.Withdrawal, error) {
					assert.Equal(t, 100.0, wd.Fee)
					assert.Equal(t, 4900.0, wd.NetAmount)
					assert.Equal(t, domain.WithdrawalPending, wd.Status)
					wd.ID = uuid.New()
					return wd, nil
				})
				m.expectNotify("Withdrawal Requested")
			},
		},
		{
			name: "Insufficient balance",
			req:  req,
			prepareMock: func(m *mocks) {
				m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					return fn(ctx)
				})
				m.balanceRepo.EXPECT().LockWorkerBalance(gomock.Any(), worker.SubjectID).
					Return(domain.NewBalance(worker.SubjectID, 10000, 2000, 4000), nil)
			},
			expectedError: domain.ErrInsufficientBalance,
		},
		{
			name: "Error creating withdrawal",
			req:  req,
			prepareMock: func(m *mocks) {
				m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					return fn(ctx)
				})
				m.balanceRepo.EXPECT().LockWorkerBalance(gomock.Any(), worker.SubjectID).
					Return(domain.NewBalance(worker.SubjectID, 10000, 0, 0), nil)
				m.withdrawalRepo.EXPECT().CreateWithdrawal(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
		{
			name:          "Mobile money needs a phone",
			req:           dto.WithdrawalRequestDTO{Amount: 5000, Method: "momo"},
			expectedError: domain.MissingFields("phone"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			wd, err := service.Withdraw(context.Background(), worker, tt.req)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, wd.ID)
			}
		})
	}
}

func TestGetWithdrawals(t *testing.T) {
	t.Run("Worker sees own withdrawals", func(t *testing.T) {
		service, m := NewMock(t)
		m.withdrawalRepo.EXPECT().GetWithdrawals(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f domain.WithdrawalFilter) ([]domain.Withdrawal, error) {
			require.NotNil(t, f.WorkerID)
			assert.Equal(t, worker.SubjectID, *f.WorkerID)
			return []domain.Withdrawal{*withdrawal(domain.WithdrawalPending)}, nil
		})

		list, err := service.GetWithdrawals(context.Background(), worker, "", domain.Page{})

		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Homeowners have no withdrawals", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.GetWithdrawals(context.Background(), &auth.Principal{Role: domain.RoleHomeowner}, "", domain.Page{})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestAdminTransitions(t *testing.T) {
	t.Run("Approve", func(t *testing.T) {
		service, m := NewMock(t)
		wd := withdrawal(domain.WithdrawalPending)
		m.withdrawalRepo.EXPECT().GetWithdrawal(gomock.Any(), wd.ID).Return(wd, nil)
		m.withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), wd.ID, domain.WithdrawalPending, domain.WithdrawalApproved,
			domain.WithdrawalUpdate{AdminNotes: "ok", ProcessedBy: &admin.UserID}).Return(nil)
		m.expectNotify("Withdrawal Approved")

		got, err := service.Approve(context.Background(), admin, wd.ID, "ok")

		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalApproved, got.Status)
	})

	t.Run("Process pays out the net amount", func(t *testing.T) {
		service, m := NewMock(t)
		wd := withdrawal(domain.WithdrawalApproved)
		m.withdrawalRepo.EXPECT().GetWithdrawal(gomock.Any(), wd.ID).Return(wd, nil)
		m.payout.EXPECT().CashOut(gomock.Any(), "0788123456", 4900.0).Return(&paypack.Transaction{Ref: "pp-out"}, nil)
		m.withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), wd.ID, domain.WithdrawalApproved, domain.WithdrawalProcessing,
			domain.WithdrawalUpdate{GatewayRef: "pp-out", ProcessedBy: &admin.UserID}).Return(nil)
		m.expectNotify("Withdrawal Processing")

		got, err := service.Process(context.Background(), admin, wd.ID, "")

		require.NoError(t, err)
		assert.Equal(t, "pp-out", got.GatewayRef)
	})

	t.Run("Cash-out failure leaves the status alone", func(t *testing.T) {
		service, m := NewMock(t)
		wd := withdrawal(domain.WithdrawalApproved)
		m.withdrawalRepo.EXPECT().GetWithdrawal(gomock.Any(), wd.ID).Return(wd, nil)
		m.payout.EXPECT().CashOut(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("insufficient float"))

		_, err := service.Process(context.Background(), admin, wd.ID, "")

		assert.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("Cannot complete a pending withdrawal", func(t *testing.T) {
		service, m := NewMock(t)
		wd := withdrawal(domain.WithdrawalPending)
		m.withdrawalRepo.EXPECT().GetWithdrawal(gomock.Any(), wd.ID).Return(wd, nil)

		_, err := service.Complete(context.Background(), admin, wd.ID, "")

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Reject", func(t *testing.T) {
		service, m := NewMock(t)
		wd := withdrawal(domain.WithdrawalPending)
		m.withdrawalRepo.EXPECT().GetWithdrawal(gomock.Any(), wd.ID).Return(wd, nil)
		m.withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), wd.ID, domain.WithdrawalPending, domain.WithdrawalRejected, gomock.Any()).Return(nil)
		m.expectNotify("Withdrawal Rejected")

		_, err := service.Reject(context.Background(), admin, wd.ID, "Phone number unreachable")

		require.NoError(t, err)
	})

	t.Run("Workers cannot approve", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.Approve(context.Background(), worker, uuid.New(), "")

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
