package service

import (
	"github.com/divinecia/Househelp-sub000/internal/handlers/applications"
	"github.com/divinecia/Househelp-sub000/internal/handlers/auth"
	"github.com/divinecia/Househelp-sub000/internal/handlers/balance"
	"github.com/divinecia/Househelp-sub000/internal/handlers/bookings"
	"github.com/divinecia/Househelp-sub000/internal/handlers/disputes"
	"github.com/divinecia/Househelp-sub000/internal/handlers/notifications"
	"github.com/divinecia/Househelp-sub000/internal/handlers/options"
	"github.com/divinecia/Househelp-sub000/internal/handlers/payments"
	"github.com/divinecia/Househelp-sub000/internal/handlers/records"
	"github.com/divinecia/Househelp-sub000/internal/pg"
	"github.com/divinecia/Househelp-sub000/internal/reconcile"

	pkgauth "github.com/divinecia/Househelp-sub000/pkg/auth"

	"github.com/divinecia/Househelp-sub000/internal/repo"
	applicationservice "github.com/divinecia/Househelp-sub000/internal/service/applicationservice"
	authservice "github.com/divinecia/Househelp-sub000/internal/service/authservice"
	balanceservice "github.com/divinecia/Househelp-sub000/internal/service/balanceservice"
	bookingservice "github.com/divinecia/Househelp-sub000/internal/service/bookingservice"
	disputeservice "github.com/divinecia/Househelp-sub000/internal/service/disputeservice"
	notifyservice "github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	optionsservice "github.com/divinecia/Househelp-sub000/internal/service/optionsservice"
	paymentservice "github.com/divinecia/Househelp-sub000/internal/service/paymentservice"
	recordservice "github.com/divinecia/Househelp-sub000/internal/service/recordservice"
)

// Deps are the external collaborators. MobileMoney, Checkout and Publisher
// stay nil when the matching integration is not configured.
type Deps struct {
	Provider    authservice.Provider
	Mailer      authservice.Mailer
	Publisher   notifyservice.Publisher
	MobileMoney paymentservice.MobileMoney
	Checkout    paymentservice.Checkout
	Payout      balanceservice.Payout
	JWT         pkgauth.JWTServiceInterface

	AppURL             string
	PaymentRedirectURL string
}

type Services struct {
	AuthService         auth.Service
	RecordService       records.Service
	BookingService      bookings.Service
	ApplicationService  applications.Service
	PaymentService      payments.Service
	BalanceService      balance.Service
	DisputeService      disputes.Service
	NotificationService notifications.Service
	OptionService       options.Service

	Authenticator pkgauth.Authenticator
	PaymentSync   reconcile.Source
}

func New(repo *repo.Repositories, txManager pg.TXManager, deps Deps) *Services {
	notifyService := notifyservice.New(repo.NotificationRepo, deps.Publisher)
	authService := authservice.New(
		repo.ProfileRepo,
		repo.RecordRepo,
		repo.ResetRepo,
		deps.Provider,
		deps.Mailer,
		&pkgauth.HashService{},
		deps.JWT,
		deps.AppURL,
	)
	paymentService := paymentservice.New(
		repo.PaymentRepo,
		repo.BookingRepo,
		repo.ProfileRepo,
		notifyService,
		deps.MobileMoney,
		deps.Checkout,
		deps.PaymentRedirectURL,
	)

	return &Services{
		AuthService:         authService,
		RecordService:       recordservice.New(repo.RecordRepo, notifyService),
		BookingService:      bookingservice.New(repo.BookingRepo, repo.ProfileRepo, notifyService),
		ApplicationService:  applicationservice.New(repo.ApplicationRepo, repo.BookingRepo, repo.ProfileRepo, notifyService, txManager),
		PaymentService:      paymentService,
		BalanceService:      balanceservice.New(repo.BalanceRepo, repo.Withdrawal, repo.ProfileRepo, notifyService, deps.Payout, txManager),
		DisputeService:      disputeservice.New(repo.DisputeRepo, repo.BookingRepo, repo.ProfileRepo, notifyService, paymentService, txManager),
		NotificationService: notifyService,
		OptionService:       optionsservice.New(repo.OptionRepo),
		Authenticator:       authService,
		PaymentSync:         paymentService,
	}
}
