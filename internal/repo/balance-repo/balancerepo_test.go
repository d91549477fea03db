package balancerepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/pg"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	mockTxManager := pg.NewMockTXManager(ctrl)

	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB, mockTxManager)
	t.Cleanup(mockDB.Close)

	return repo, mockDB, mockTxManager
}

var sumsQuery = regexp.QuoteMeta("FROM payments p JOIN bookings b ON b.id = p.booking_id WHERE b.worker_id = $1 AND p.status = 'success'")

func TestRepository_GetWorkerBalance(t *testing.T) {
	repo, mock, _ := NewMock(t)
	workerID := uuid.New()

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Balance
	}{
		{
			name: "Balance with pending withdrawals",
			mockSetup: func() {
				mock.ExpectQuery(sumsQuery).WithArgs(workerID).
					WillReturnRows(pgxmock.NewRows([]string{"earned", "withdrawn", "pending"}).AddRow(20000.0, 5000.0, 3000.0))
			},
			result: &domain.Balance{
				WorkerID:            workerID,
				TotalEarned:         20000,
				TotalWithdrawn:      5000,
				AvailableBalance:    15000,
				PendingWithdrawals:  3000,
				WithdrawableBalance: 12000,
			},
		},
		{
			name: "Withdrawable never negative",
			mockSetup: func() {
				mock.ExpectQuery(sumsQuery).WithArgs(workerID).
					WillReturnRows(pgxmock.NewRows([]string{"earned", "withdrawn", "pending"}).AddRow(1000.0, 0.0, 4000.0))
			},
			result: &domain.Balance{
				WorkerID:            workerID,
				TotalEarned:         1000,
				AvailableBalance:    1000,
				PendingWithdrawals:  4000,
				WithdrawableBalance: 0,
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(sumsQuery).WithArgs(workerID).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetWorkerBalance(context.Background(), workerID)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestBalanceQuery_CreditsAssignedWorker(t *testing.T) {
	// payments.worker_id is a snapshot taken at initiation and is NULL when the
	// booking was paid before a worker was assigned.
	assert.NotRegexp(t, `payments\s+WHERE\s+worker_id`, balanceQuery)
	assert.Contains(t, balanceQuery, "b.worker_id = $1")
}

func TestRepository_LockWorkerBalance(t *testing.T) {
	repo, mock, tx := NewMock(t)
	workerID := uuid.New()
	lockQuery := regexp.QuoteMeta("SELECT id FROM workers WHERE id = $1 FOR UPDATE")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr error
		result    *domain.Balance
	}{
		{
			name: "Locked and computed",
			mockSetup: func() {
				tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					return fn(ctx)
				})
				mock.ExpectQuery(lockQuery).WithArgs(workerID).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(workerID))
				mock.ExpectQuery(sumsQuery).WithArgs(workerID).
					WillReturnRows(pgxmock.NewRows([]string{"earned", "withdrawn", "pending"}).AddRow(10000.0, 0.0, 0.0))
			},
			result: domain.NewBalance(workerID, 10000, 0, 0),
		},
		{
			name: "Unknown worker",
			mockSetup: func() {
				tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
					return fn(ctx)
				})
				mock.ExpectQuery(lockQuery).WithArgs(workerID).WillReturnError(pgx.ErrNoRows)
			},
			expectErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.LockWorkerBalance(context.Background(), workerID)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
