package repo

import (
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
	"github.com/divinecia/Househelp-sub000/internal/service/applicationservice"
	"github.com/divinecia/Househelp-sub000/internal/service/authservice"
	"github.com/divinecia/Househelp-sub000/internal/service/balanceservice"
	"github.com/divinecia/Househelp-sub000/internal/service/bookingservice"
	"github.com/divinecia/Househelp-sub000/internal/service/disputeservice"
	"github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	"github.com/divinecia/Househelp-sub000/internal/service/optionsservice"
	"github.com/divinecia/Househelp-sub000/internal/service/paymentservice"
	"github.com/divinecia/Househelp-sub000/internal/service/recordservice"
)

// ProfileRepo also resolves role rows back to auth users for notifications.
type ProfileRepo interface {
	authservice.ProfileRepo
	bookingservice.Directory
}

// BookingRepo is shared by the booking service and the services that lock
// bookings inside their own transactions.
type BookingRepo interface {
	bookingservice.Repo
	applicationservice.BookingRepo
}

type Repositories struct {
	ProfileRepo      ProfileRepo
	RecordRepo       recordservice.Repo
	ResetRepo        authservice.ResetRepo
	BookingRepo      BookingRepo
	ApplicationRepo  applicationservice.Repo
	PaymentRepo      paymentservice.Repo
	BalanceRepo      balanceservice.BalanceRepo
	Withdrawal       balanceservice.WithdrawalRepo
	DisputeRepo      disputeservice.Repo
	NotificationRepo notifyservice.Repo
	OptionRepo       optionsservice.Repo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		ProfileRepo:      profilerepo.New(conn),
		RecordRepo:       recordrepo.New(conn),
		ResetRepo:        resetrepo.New(conn),
		BookingRepo:      bookingrepo.New(conn),
		ApplicationRepo:  applicationrepo.New(conn),
		PaymentRepo:      paymentrepo.New(conn),
		BalanceRepo:      balancerepo.New(conn, txManager),
		Withdrawal:       withdrawalrepo.New(conn),
		DisputeRepo:      disputerepo.New(conn),
		NotificationRepo: notificationrepo.New(conn),
		OptionRepo:       optionsrepo.New(conn),
	}
}
