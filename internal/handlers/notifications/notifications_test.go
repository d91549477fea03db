package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
)

func NewMock(t *testing.T) (*NotificationHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func TestListHandler(t *testing.T) {
	handler, service := NewMock(t)
	p := &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker}

	tests := []struct {
		name         string
		target       string
		prepareMock  func()
		expectedCode int
		expectedBody string
	}{
		{
			name:   "Unread only",
			target: "/api/notifications?unread=true",
			prepareMock: func() {
				service.EXPECT().List(gomock.Any(), p, true, domain.Page{Limit: domain.DefaultLimit}).
					Return([]domain.Notification{{ID: uuid.New(), Title: "Payment Successful"}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: "Payment Successful",
		},
		{
			name:   "Empty",
			target: "/api/notifications",
			prepareMock: func() {
				service.EXPECT().List(gomock.Any(), p, false, gomock.Any()).Return(nil, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"data":[]`,
		},
		{
			name:   "Database error",
			target: "/api/notifications",
			prepareMock: func() {
				service.EXPECT().List(gomock.Any(), p, false, gomock.Any()).Return(nil, errors.New("boom"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			r = r.WithContext(auth.WithPrincipal(r.Context(), p))
			w := httptest.NewRecorder()
			handler.List(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestMarkReadHandler(t *testing.T) {
	handler, service := NewMock(t)
	p := &auth.Principal{UserID: uuid.New(), Role: domain.RoleHomeowner}
	id := uuid.New()

	service.EXPECT().MarkRead(gomock.Any(), p, id).Return(domain.ErrNotFound)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	r := httptest.NewRequest(http.MethodPut, "/api/notifications/"+id.String()+"/read", nil)
	r = r.WithContext(context.WithValue(auth.WithPrincipal(r.Context(), p), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.MarkRead(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAllReadHandler(t *testing.T) {
	handler, service := NewMock(t)
	p := &auth.Principal{UserID: uuid.New(), Role: domain.RoleHomeowner}

	service.EXPECT().MarkAllRead(gomock.Any(), p).Return(int64(3), nil)

	r := httptest.NewRequest(http.MethodPut, "/api/notifications/read-all", nil)
	r = r.WithContext(auth.WithPrincipal(r.Context(), p))
	w := httptest.NewRecorder()

	handler.MarkAllRead(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":3`)
}
