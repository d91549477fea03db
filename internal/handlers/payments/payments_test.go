package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/flutterwave"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/paypack"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

func NewMock(t *testing.T) (*PaymentHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func newRequest(method, target, body string, p *auth.Principal, id string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	ctx := r.Context()
	if p != nil {
		ctx = auth.WithPrincipal(ctx, p)
	}
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func TestInitiateHandler(t *testing.T) {
	handler, service := NewMock(t)
	homeowner := &auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: domain.RoleHomeowner}
	bookingID := uuid.New()

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Mobile money",
			body: `{"bookingId":"` + bookingID.String() + `","method":"MTN Mobile Money","phone":"0788123456"}`,
			prepareMock: func() {
				service.EXPECT().Initiate(gomock.Any(), homeowner, dto.InitiatePaymentRequestDTO{
					BookingID: bookingID, Method: "MTN Mobile Money", Phone: "0788123456",
				}).Return(&dto.InitiatePaymentResponseDTO{PaymentID: uuid.New(), TxRef: "HH-1-ABCDEFGH", Status: "pending"}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Card fails Luhn",
			body:          `{"bookingId":"` + bookingID.String() + `","method":"card","cardNumber":"4111111111111112"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid card number",
		},
		{
			name: "Gateway down",
			body: `{"bookingId":"` + bookingID.String() + `","method":"card","cardNumber":"4111111111111111"}`,
			prepareMock: func() {
				service.EXPECT().Initiate(gomock.Any(), homeowner, gomock.Any()).Return(nil, domain.ErrUpstream)
			},
			expectedCode:  http.StatusBadGateway,
			expectedError: "Upstream service unavailable",
		},
		{
			name:          "Missing method",
			body:          `{"bookingId":"` + bookingID.String() + `"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Missing required fields: method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/payments/initiate", tt.body, homeowner, "")
			w := httptest.NewRecorder()
			handler.Initiate(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)

			var resp utils.Response
			_ = json.NewDecoder(w.Body).Decode(&resp)
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}
}

func TestListAndGetHandlers(t *testing.T) {
	handler, service := NewMock(t)
	homeowner := &auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: domain.RoleHomeowner}
	id := uuid.New()

	t.Run("List", func(t *testing.T) {
		service.EXPECT().List(gomock.Any(), homeowner, nil, "success", gomock.Any()).
			Return([]domain.Payment{{ID: id, Status: domain.PaymentSuccess}}, nil)

		r := newRequest(http.MethodGet, "/api/payments?status=success", "", homeowner, "")
		w := httptest.NewRecorder()
		handler.List(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"success"`)
	})

	t.Run("Get foreign payment", func(t *testing.T) {
		service.EXPECT().Get(gomock.Any(), homeowner, id).Return(nil, domain.ErrForbidden)

		r := newRequest(http.MethodGet, "/api/payments/"+id.String(), "", homeowner, id.String())
		w := httptest.NewRecorder()
		handler.Get(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUpdateHandler(t *testing.T) {
	handler, service := NewMock(t)
	admin := &auth.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
	id := uuid.New()
	ref := "FLW-123"

	service.EXPECT().UpdateDetails(gomock.Any(), admin, id, dto.UpdatePaymentRequestDTO{GatewayRef: &ref}).
		Return(&domain.Payment{ID: id, GatewayRef: ref}, nil)

	r := newRequest(http.MethodPut, "/api/payments/"+id.String(), `{"gatewayRef":"FLW-123"}`, admin, id.String())
	w := httptest.NewRecorder()
	handler.Update(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyHandler(t *testing.T) {
	handler, service := NewMock(t)
	homeowner := &auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: domain.RoleHomeowner}
	id := uuid.New()

	service.EXPECT().Verify(gomock.Any(), homeowner, id).Return(&domain.Payment{ID: id, Status: domain.PaymentSuccess}, nil)

	r := newRequest(http.MethodPost, "/api/payments/"+id.String()+"/verify", "", homeowner, id.String())
	w := httptest.NewRecorder()
	handler.Verify(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookHandlers(t *testing.T) {
	handler, service := NewMock(t)
	body := `{"event":"charge.completed","data":{"id":42,"tx_ref":"HH-1-ABCDEFGH","status":"successful"}}`

	tests := []struct {
		name         string
		handle       http.HandlerFunc
		header       string
		value        string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:   "Flutterwave accepted",
			handle: handler.FlutterwaveWebhook,
			header: flutterwave.HashHeader,
			value:  "secret",
			prepareMock: func() {
				service.EXPECT().HandleFlutterwaveWebhook(gomock.Any(), "secret", []byte(body)).Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Flutterwave bad hash",
			handle: handler.FlutterwaveWebhook,
			header: flutterwave.HashHeader,
			value:  "wrong",
			prepareMock: func() {
				service.EXPECT().HandleFlutterwaveWebhook(gomock.Any(), "wrong", gomock.Any()).Return(domain.ErrUnauthorized)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "PayPack accepted",
			handle: handler.PaypackWebhook,
			header: paypack.SignatureHeader,
			value:  "c2ln",
			prepareMock: func() {
				service.EXPECT().HandlePaypackWebhook(gomock.Any(), "c2ln", []byte(body)).Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "PayPack gateway down",
			handle: handler.PaypackWebhook,
			header: paypack.SignatureHeader,
			value:  "c2ln",
			prepareMock: func() {
				service.EXPECT().HandlePaypackWebhook(gomock.Any(), "c2ln", gomock.Any()).Return(domain.ErrUpstream)
			},
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/payments/webhooks", body, nil, "")
			r.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()
			tt.handle(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
