package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	_ "github.com/divinecia/Househelp-sub000/docs"
	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/handlers/applications"
	authhandlers "github.com/divinecia/Househelp-sub000/internal/handlers/auth"
	"github.com/divinecia/Househelp-sub000/internal/handlers/balance"
	"github.com/divinecia/Househelp-sub000/internal/handlers/bookings"
	"github.com/divinecia/Househelp-sub000/internal/handlers/disputes"
	"github.com/divinecia/Househelp-sub000/internal/handlers/health"
	"github.com/divinecia/Househelp-sub000/internal/handlers/notifications"
	"github.com/divinecia/Househelp-sub000/internal/handlers/options"
	"github.com/divinecia/Househelp-sub000/internal/handlers/payments"
	"github.com/divinecia/Househelp-sub000/internal/handlers/records"
	"github.com/divinecia/Househelp-sub000/internal/service"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/ratelimit"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	services := &service.Services{
		AuthService:         authhandlers.NewMockService(ctrl),
		RecordService:       records.NewMockService(ctrl),
		BookingService:      bookings.NewMockService(ctrl),
		ApplicationService:  applications.NewMockService(ctrl),
		PaymentService:      payments.NewMockService(ctrl),
		BalanceService:      balance.NewMockService(ctrl),
		DisputeService:      disputes.NewMockService(ctrl),
		NotificationService: notifications.NewMockService(ctrl),
		OptionService:       options.NewMockService(ctrl),
		Authenticator:       auth.NewMockAuthenticator(ctrl),
	}

	h := New(services, health.NewMockPinger(ctrl), ratelimit.New(5, 15*time.Minute), []string{"https://househelp.rw"}, false)
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.Authenticate)
	assert.NotNil(t, h.RateLimit)
}

func newRoutedHandlers(t *testing.T) *Handlers {
	ctrl := gomock.NewController(t)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	okFunc := http.HandlerFunc(ok)

	authHandler := NewMockAuthHandler(ctrl)
	authHandler.EXPECT().Register(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	authHandler.EXPECT().Login(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	authHandler.EXPECT().Me(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	recordHandler := NewMockRecordHandler(ctrl)
	recordHandler.EXPECT().List(gomock.Any()).Return(okFunc).AnyTimes()
	recordHandler.EXPECT().Get(gomock.Any()).Return(okFunc).AnyTimes()
	recordHandler.EXPECT().Create(gomock.Any()).Return(okFunc).AnyTimes()
	recordHandler.EXPECT().Update(gomock.Any()).Return(okFunc).AnyTimes()
	recordHandler.EXPECT().Delete(gomock.Any()).Return(okFunc).AnyTimes()
	recordHandler.EXPECT().VerifyDocument(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	bookingHandler := NewMockBookingHandler(ctrl)
	bookingHandler.EXPECT().List(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	bookingHandler.EXPECT().Create(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	bookingHandler.EXPECT().Assign(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	paymentHandler := NewMockPaymentHandler(ctrl)
	paymentHandler.EXPECT().PaypackWebhook(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	paymentHandler.EXPECT().Initiate(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	balanceHandler := NewMockBalanceHandler(ctrl)
	balanceHandler.EXPECT().GetBalance(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	balanceHandler.EXPECT().Approve(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	disputeHandler := NewMockDisputeHandler(ctrl)
	disputeHandler.EXPECT().Resolve(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	notificationHandler := NewMockNotificationHandler(ctrl)
	notificationHandler.EXPECT().MarkAllRead(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	optionHandler := NewMockOptionHandler(ctrl)
	optionHandler.EXPECT().List(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	healthHandler := NewMockHealthHandler(ctrl)
	healthHandler.EXPECT().Ping(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	authenticator := auth.NewMockAuthenticator(ctrl)
	for token, role := range map[string]domain.Role{
		"admin":     domain.RoleAdmin,
		"worker":    domain.RoleWorker,
		"homeowner": domain.RoleHomeowner,
	} {
		authenticator.EXPECT().Authenticate(gomock.Any(), token).
			Return(&auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: role}, nil).AnyTimes()
	}
	authenticator.EXPECT().Authenticate(gomock.Any(), "expired").Return(nil, domain.ErrUnauthorized).AnyTimes()

	return &Handlers{
		AuthHandler:         authHandler,
		RecordHandler:       recordHandler,
		BookingHandler:      bookingHandler,
		ApplicationHandler:  NewMockApplicationHandler(ctrl),
		PaymentHandler:      paymentHandler,
		BalanceHandler:      balanceHandler,
		DisputeHandler:      disputeHandler,
		NotificationHandler: notificationHandler,
		OptionHandler:       optionHandler,
		HealthHandler:       healthHandler,
		Authenticate:        auth.NewMiddleware(authenticator).RequireAuth,
		RateLimit:           ratelimit.New(100, time.Minute).Middleware,
	}
}

func TestInitRoutes(t *testing.T) {
	h := newRoutedHandlers(t)
	router := chi.NewRouter()
	h.InitRoutes(router)

	id := uuid.New().String()

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"GET", "/api/ping", "", http.StatusOK},
		{"GET", "/api/options/genders", "", http.StatusOK},
		{"POST", "/api/auth/register", "", http.StatusOK},
		{"POST", "/api/auth/login", "", http.StatusOK},
		{"GET", "/api/auth/me", "", http.StatusUnauthorized},
		{"GET", "/api/auth/me", "worker", http.StatusOK},
		{"GET", "/api/bookings", "", http.StatusUnauthorized},
		{"GET", "/api/bookings", "expired", http.StatusUnauthorized},
		{"GET", "/api/bookings", "worker", http.StatusOK},
		{"POST", "/api/bookings", "worker", http.StatusForbidden},
		{"POST", "/api/bookings", "homeowner", http.StatusOK},
		{"PUT", "/api/bookings/" + id + "/assign", "homeowner", http.StatusForbidden},
		{"PUT", "/api/bookings/" + id + "/assign", "admin", http.StatusOK},
		{"GET", "/api/workers", "homeowner", http.StatusOK},
		{"POST", "/api/favorites", "homeowner", http.StatusOK},
		{"GET", "/api/trainings/" + id, "worker", http.StatusOK},
		{"PUT", "/api/availability/" + id, "worker", http.StatusOK},
		{"DELETE", "/api/reports/" + id, "admin", http.StatusOK},
		{"PUT", "/api/documents/" + id + "/verify", "worker", http.StatusForbidden},
		{"PUT", "/api/documents/" + id + "/verify", "admin", http.StatusOK},
		{"GET", "/api/withdrawals/balance", "worker", http.StatusOK},
		{"GET", "/api/withdrawals/balance", "homeowner", http.StatusForbidden},
		{"PUT", "/api/withdrawals/" + id + "/approve", "worker", http.StatusForbidden},
		{"PUT", "/api/withdrawals/" + id + "/approve", "admin", http.StatusOK},
		{"POST", "/api/payments/webhooks/paypack", "", http.StatusOK},
		{"POST", "/api/payments/initiate", "", http.StatusUnauthorized},
		{"POST", "/api/payments/initiate", "homeowner", http.StatusOK},
		{"PUT", "/api/disputes/" + id + "/resolve", "homeowner", http.StatusForbidden},
		{"PUT", "/api/disputes/" + id + "/resolve", "admin", http.StatusOK},
		{"PUT", "/api/notifications/read-all", "worker", http.StatusOK},
		{"GET", "/api/unknown", "admin", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url+" "+tt.token, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	h := newRoutedHandlers(t)
	h.RateLimit = ratelimit.New(2, time.Hour).Middleware
	router := chi.NewRouter()
	h.InitRoutes(router)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest("GET", "/api/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitIgnoresForwardedHeaders(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		want       []int
	}{
		{
			name: "Rotating X-Forwarded-For shares one bucket",
			want: []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:       "Trusted proxy headers pick the bucket",
			trustProxy: true,
			want:       []int{http.StatusOK, http.StatusOK, http.StatusOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRoutedHandlers(t)
			h.RateLimit = ratelimit.New(2, time.Hour).Middleware
			h.TrustProxy = tt.trustProxy
			router := chi.NewRouter()
			h.InitRoutes(router)

			codes := make([]int, 0, len(tt.want))
			for i := range len(tt.want) {
				req := httptest.NewRequest("POST", "/api/auth/login", nil)
				req.RemoteAddr = "203.0.113.7:40000"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				codes = append(codes, rec.Code)
			}

			assert.Equal(t, tt.want, codes)
		})
	}
}
