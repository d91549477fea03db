package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/divinecia/Househelp-sub000/docs"
	"github.com/divinecia/Househelp-sub000/internal/domain"
	applicationhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/applications"
	authhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/auth"
	balancehandlers "github.com/divinecia/Househelp-sub000/internal/handlers/balance"
	bookinghandlers "github.com/divinecia/Househelp-sub000/internal/handlers/bookings"
	disputehandlers "github.com/divinecia/Househelp-sub000/internal/handlers/disputes"
	healthhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/health"
	notificationhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/notifications"
	optionhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/options"
	paymenthandlers "github.com/divinecia/Househelp-sub000/internal/handlers/payments"
	recordhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/records"
	"github.com/divinecia/Househelp-sub000/internal/service"
	"github.com/divinecia/Househelp-sub000/internal/service/recordservice"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/ratelimit"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type RecordHandler interface {
	List(name string) http.HandlerFunc
	Get(name string) http.HandlerFunc
	Create(name string) http.HandlerFunc
	Update(name string) http.HandlerFunc
	Delete(name string) http.HandlerFunc
	VerifyDocument(w http.ResponseWriter, r *http.Request)
	RejectDocument(w http.ResponseWriter, r *http.Request)
}

type BookingHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Accept(w http.ResponseWriter, r *http.Request)
	Assign(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Start(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
	SetStatus(w http.ResponseWriter, r *http.Request)
	Fees(w http.ResponseWriter, r *http.Request)
}

type ApplicationHandler interface {
	Apply(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Accept(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type PaymentHandler interface {
	Initiate(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	FlutterwaveWebhook(w http.ResponseWriter, r *http.Request)
	PaypackWebhook(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	GetWithdrawals(w http.ResponseWriter, r *http.Request)
	GetWithdrawal(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
}

type DisputeHandler interface {
	Open(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Investigate(w http.ResponseWriter, r *http.Request)
	Escalate(w http.ResponseWriter, r *http.Request)
	Close(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
}

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	MarkRead(w http.ResponseWriter, r *http.Request)
	MarkAllRead(w http.ResponseWriter, r *http.Request)
}

type OptionHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type HealthHandler interface {
	Ping(w http.ResponseWriter, r *http.Request)
	Database(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler         AuthHandler
	RecordHandler       RecordHandler
	BookingHandler      BookingHandler
	ApplicationHandler  ApplicationHandler
	PaymentHandler      PaymentHandler
	BalanceHandler      BalanceHandler
	DisputeHandler      DisputeHandler
	NotificationHandler NotificationHandler
	OptionHandler       OptionHandler
	HealthHandler       HealthHandler

	// Authenticate guards every route that needs a signed-in user.
	Authenticate func(http.Handler) http.Handler
	// RateLimit guards /api/auth. It keys on RemoteAddr, which forwarded
	// headers only rewrite when TrustProxy is set.
	RateLimit      func(http.Handler) http.Handler
	AllowedOrigins []string
	TrustProxy     bool
}

func New(s *service.Services, db healthhandlers.Pinger, limiter *ratelimit.Limiter, allowedOrigins []string, trustProxy bool) *Handlers {
	return &Handlers{
		AuthHandler:         authhandlers.New(s.AuthService),
		RecordHandler:       recordhandlers.New(s.RecordService),
		BookingHandler:      bookinghandlers.New(s.BookingService),
		ApplicationHandler:  applicationhandlers.New(s.ApplicationService),
		PaymentHandler:      paymenthandlers.New(s.PaymentService),
		BalanceHandler:      balancehandlers.New(s.BalanceService),
		DisputeHandler:      disputehandlers.New(s.DisputeService),
		NotificationHandler: notificationhandlers.New(s.NotificationService),
		OptionHandler:       optionhandlers.New(s.OptionService),
		HealthHandler:       healthhandlers.New(db),
		Authenticate:        auth.NewMiddleware(s.Authenticator).RequireAuth,
		RateLimit:           limiter.Middleware,
		AllowedOrigins:      allowedOrigins,
		TrustProxy:          trustProxy,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	origins := h.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if h.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: len(h.AllowedOrigins) > 0,
			MaxAge:           300,
		}),
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	adminOnly := auth.RequireRole(domain.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.HealthHandler.Ping)
		r.Get("/health/db", h.HealthHandler.Database)
		r.Get("/options/{category}", h.OptionHandler.List)

		r.Route("/auth", func(r chi.Router) {
			r.Use(h.RateLimit)
			r.Post("/register", h.AuthHandler.Register)
			r.Post("/login", h.AuthHandler.Login)
			r.Post("/refresh", h.AuthHandler.Refresh)
			r.Post("/forgot-password", h.AuthHandler.ForgotPassword)
			r.Post("/reset-password", h.AuthHandler.ResetPassword)
			r.With(h.Authenticate).Post("/logout", h.AuthHandler.Logout)
			r.With(h.Authenticate).Get("/me", h.AuthHandler.Me)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/webhooks/flutterwave", h.PaymentHandler.FlutterwaveWebhook)
			r.Post("/webhooks/paypack", h.PaymentHandler.PaypackWebhook)

			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.With(auth.RequireRole(domain.RoleHomeowner)).Post("/initiate", h.PaymentHandler.Initiate)
				r.Get("/", h.PaymentHandler.List)
				r.Get("/{id}", h.PaymentHandler.Get)
				r.With(adminOnly).Put("/{id}", h.PaymentHandler.Update)
				r.Post("/{id}/verify", h.PaymentHandler.Verify)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			for _, name := range recordservice.Names() {
				r.Route("/"+name, func(r chi.Router) {
					r.Get("/", h.RecordHandler.List(name))
					r.Post("/", h.RecordHandler.Create(name))
					r.Get("/{id}", h.RecordHandler.Get(name))
					r.Put("/{id}", h.RecordHandler.Update(name))
					r.Delete("/{id}", h.RecordHandler.Delete(name))
					if name == recordservice.Documents {
						r.With(adminOnly).Put("/{id}/verify", h.RecordHandler.VerifyDocument)
						r.With(adminOnly).Put("/{id}/reject", h.RecordHandler.RejectDocument)
					}
				})
			}

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", h.BookingHandler.List)
				r.With(auth.RequireRole(domain.RoleHomeowner)).Post("/", h.BookingHandler.Create)
				r.Get("/{id}", h.BookingHandler.Get)
				r.Put("/{id}", h.BookingHandler.Update)
				r.Delete("/{id}", h.BookingHandler.Delete)
				r.Get("/{id}/fees", h.BookingHandler.Fees)
				r.With(auth.RequireRole(domain.RoleWorker)).Put("/{id}/accept", h.BookingHandler.Accept)
				r.With(adminOnly).Put("/{id}/assign", h.BookingHandler.Assign)
				r.Put("/{id}/cancel", h.BookingHandler.Cancel)
				r.Put("/{id}/start", h.BookingHandler.Start)
				r.Put("/{id}/complete", h.BookingHandler.Complete)
				r.Put("/{id}/status", h.BookingHandler.SetStatus)
			})

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", h.ApplicationHandler.List)
				r.With(auth.RequireRole(domain.RoleWorker)).Post("/", h.ApplicationHandler.Apply)
				r.Get("/{id}", h.ApplicationHandler.Get)
				r.Delete("/{id}", h.ApplicationHandler.Delete)
				r.Put("/{id}/accept", h.ApplicationHandler.Accept)
				r.Put("/{id}/reject", h.ApplicationHandler.Reject)
				r.Put("/{id}/withdraw", h.ApplicationHandler.Withdraw)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.With(auth.RequireRole(domain.RoleWorker)).Get("/balance", h.BalanceHandler.GetBalance)
				r.With(auth.RequireRole(domain.RoleWorker)).Post("/", h.BalanceHandler.Withdraw)
				r.Get("/", h.BalanceHandler.GetWithdrawals)
				r.Get("/{id}", h.BalanceHandler.GetWithdrawal)
				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Put("/{id}/approve", h.BalanceHandler.Approve)
					r.Put("/{id}/reject", h.BalanceHandler.Reject)
					r.Put("/{id}/process", h.BalanceHandler.Process)
					r.Put("/{id}/complete", h.BalanceHandler.Complete)
				})
			})

			r.Route("/disputes", func(r chi.Router) {
				r.Get("/", h.DisputeHandler.List)
				r.Post("/", h.DisputeHandler.Open)
				r.Get("/{id}", h.DisputeHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Put("/{id}/investigate", h.DisputeHandler.Investigate)
					r.Put("/{id}/escalate", h.DisputeHandler.Escalate)
					r.Put("/{id}/close", h.DisputeHandler.Close)
					r.Put("/{id}/resolve", h.DisputeHandler.Resolve)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.NotificationHandler.List)
				r.Put("/read-all", h.NotificationHandler.MarkAllRead)
				r.Put("/{id}/read", h.NotificationHandler.MarkRead)
			})
		})
	})

	return r
}
