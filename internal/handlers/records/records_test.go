package records

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
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

func NewMock(t *testing.T) (*RecordHandler, *MockService) {
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
	ctx := auth.WithPrincipal(r.Context(), p)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func TestListHandler(t *testing.T) {
	handler, service := NewMock(t)
	homeowner := &auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: domain.RoleHomeowner}

	tests := []struct {
		name         string
		target       string
		prepareMock  func()
		expectedCode int
		expectedBody string
	}{
		{
			name:   "Filters exclude paging parameters",
			target: "/api/workers?district=Gasabo&limit=10",
			prepareMock: func() {
				service.EXPECT().
					List(gomock.Any(), homeowner, "workers", map[string]string{"district": "Gasabo"}, domain.Page{Limit: 10}).
					Return([]domain.Record{{"id": "w1", "district": "Gasabo"}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"district":"Gasabo"`,
		},
		{
			name:   "Empty result",
			target: "/api/workers",
			prepareMock: func() {
				service.EXPECT().List(gomock.Any(), homeowner, "workers", map[string]string{}, gomock.Any()).Return(nil, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `"data":[]`,
		},
		{
			name:   "Service denies access",
			target: "/api/workers?status=active",
			prepareMock: func() {
				service.EXPECT().List(gomock.Any(), homeowner, "workers", gomock.Any(), gomock.Any()).Return(nil, domain.ErrForbidden)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: "Access denied",
		},
		{
			name:   "Malformed id filter",
			target: "/api/workers?user_id=abc",
			prepareMock: func() {
				service.EXPECT().List(gomock.Any(), homeowner, "workers", map[string]string{"user_id": "abc"}, gomock.Any()).
					Return(nil, domain.NewValidationError("invalid value for user_id", "user_id"))
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: "invalid value for user_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodGet, tt.target, "", homeowner, "")
			w := httptest.NewRecorder()
			handler.List("workers")(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestCreateHandler(t *testing.T) {
	handler, service := NewMock(t)
	homeowner := &auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: domain.RoleHomeowner}
	workerID := uuid.New()

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful creation",
			body: `{"workerId":"` + workerID.String() + `"}`,
			prepareMock: func() {
				service.EXPECT().Create(gomock.Any(), homeowner, "favorites", map[string]any{"workerId": workerID.String()}).
					Return(domain.Record{"id": uuid.New().String(), "worker_id": workerID.String()}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "Missing column",
			body: `{"notes":"x"}`,
			prepareMock: func() {
				service.EXPECT().Create(gomock.Any(), homeowner, "favorites", gomock.Any()).
					Return(nil, domain.MissingFields("worker_id"))
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Missing required fields: worker_id",
		},
		{
			name:          "Not an object",
			body:          `[1,2]`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/favorites", tt.body, homeowner, "")
			w := httptest.NewRecorder()
			handler.Create("favorites")(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)

			var resp utils.Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}
}

func TestGetUpdateDeleteHandlers(t *testing.T) {
	handler, service := NewMock(t)
	worker := &auth.Principal{UserID: uuid.New(), SubjectID: uuid.New(), Role: domain.RoleWorker}
	id := uuid.New()

	t.Run("Get", func(t *testing.T) {
		service.EXPECT().Get(gomock.Any(), worker, "workers", id).Return(domain.Record{"id": id.String()}, nil)

		r := newRequest(http.MethodGet, "/api/workers/"+id.String(), "", worker, id.String())
		w := httptest.NewRecorder()
		handler.Get("workers")(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Update", func(t *testing.T) {
		service.EXPECT().Update(gomock.Any(), worker, "workers", id, map[string]any{"hourlyRate": float64(3000)}).
			Return(domain.Record{"id": id.String(), "hourly_rate": 3000}, nil)

		r := newRequest(http.MethodPut, "/api/workers/"+id.String(), `{"hourlyRate":3000}`, worker, id.String())
		w := httptest.NewRecorder()
		handler.Update("workers")(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Delete by non-admin", func(t *testing.T) {
		service.EXPECT().Delete(gomock.Any(), worker, "workers", id).Return(domain.ErrForbidden)

		r := newRequest(http.MethodDelete, "/api/workers/"+id.String(), "", worker, id.String())
		w := httptest.NewRecorder()
		handler.Delete("workers")(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Bad id", func(t *testing.T) {
		r := newRequest(http.MethodGet, "/api/workers/x", "", worker, "x")
		w := httptest.NewRecorder()
		handler.Get("workers")(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDocumentReviewHandlers(t *testing.T) {
	handler, service := NewMock(t)
	admin := &auth.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
	id := uuid.New()

	t.Run("Verify", func(t *testing.T) {
		service.EXPECT().VerifyDocument(gomock.Any(), admin, id).
			Return(domain.Record{"id": id.String(), "status": "verified"}, nil)

		r := newRequest(http.MethodPut, "/api/documents/"+id.String()+"/verify", "", admin, id.String())
		w := httptest.NewRecorder()
		handler.VerifyDocument(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Document verified")
	})

	t.Run("Reject requires a reason", func(t *testing.T) {
		r := newRequest(http.MethodPut, "/api/documents/"+id.String()+"/reject", `{}`, admin, id.String())
		w := httptest.NewRecorder()
		handler.RejectDocument(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Missing required fields: reason")
	})

	t.Run("Reject", func(t *testing.T) {
		service.EXPECT().RejectDocument(gomock.Any(), admin, id, "Blurry scan").
			Return(domain.Record{"id": id.String(), "status": "rejected"}, nil)

		r := newRequest(http.MethodPut, "/api/documents/"+id.String()+"/reject", `{"reason":"Blurry scan"}`, admin, id.String())
		w := httptest.NewRecorder()
		handler.RejectDocument(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
