package repo

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/pg"
	applicationrepo "github.com/divinecia/Househelp-sub000/internal/repo/application-repo"
	balancerepo "github.com/divinecia/Househelp-sub000/internal/repo/balance-repo"
	bookingrepo "github.com/divinecia/Househelp-sub000/internal/repo/booking-repo"
	disputerepo "github.com/divinecia/Househelp-sub000/internal/repo/dispute-repo"
	notificationrepo "github.com/divinecia/Househelp-sub000/internal/repo/notification-repo"
	optionsrepo "github.com/divinecia/Househelp-sub000/internal/repo/options-repo"
	paymentrepo "github.com/divinecia/Househelp-sub000/internal/repo/payment-repo"
	profilerepo "github.com/divinecia/Househelp-sub000/internal/repo/profile-repo"
	recordrepo "github.com/divinecia/Househelp-sub000/internal/repo/record-repo"
	resetrepo "github.com/divinecia/Househelp-sub000/internal/repo/reset-repo"
	withdrawalrepo "github.com/divinecia/Househelp-sub000/internal/repo/withdrawal-repo"
)

func NewMock(t *testing.T) (*Repositories, pgxmock.PgxPoolIface) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB, pg.NewMockTXManager(ctrl)), mockDB
}

func TestNew(t *testing.T) {
	repo, mock := NewMock(t)

	assert.IsType(t, &profilerepo.Repository{}, repo.ProfileRepo)
	assert.IsType(t, &recordrepo.Repository{}, repo.RecordRepo)
	assert.IsType(t, &resetrepo.Repository{}, repo.ResetRepo)
	assert.IsType(t, &bookingrepo.Repository{}, repo.BookingRepo)
	assert.IsType(t, &applicationrepo.Repository{}, repo.ApplicationRepo)
	assert.IsType(t, &paymentrepo.Repository{}, repo.PaymentRepo)
	assert.IsType(t, &balancerepo.Repository{}, repo.BalanceRepo)
	assert.IsType(t, &withdrawalrepo.Repository{}, repo.Withdrawal)
	assert.IsType(t, &disputerepo.Repository{}, repo.DisputeRepo)
	assert.IsType(t, &notificationrepo.Repository{}, repo.NotificationRepo)
	assert.IsType(t, &optionsrepo.Repository{}, repo.OptionRepo)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
