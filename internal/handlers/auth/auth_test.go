package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	pkgauth "github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/supabase"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

func NewMock(t *testing.T) (*AuthHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func authResponse() *dto.AuthResponseDTO {
	userID := uuid.New()
	return &dto.AuthResponseDTO{
		User:    &supabase.User{ID: userID, Email: "jane@example.rw"},
		Session: &supabase.Session{AccessToken: "access", RefreshToken: "refresh"},
		Profile: &domain.UserProfile{UserID: userID, Email: "jane@example.rw", Role: domain.RoleHomeowner},
	}
}

func TestRegisterHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful registration",
			body: `{"email":"jane@example.rw","password":"secret123","fullName":"Jane Uwase","role":"homeowner","district":"Gasabo"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req dto.RegisterRequestDTO) (*dto.AuthResponseDTO, error) {
					assert.Equal(t, "jane@example.rw", req.Email)
					assert.Equal(t, "Gasabo", req.Fields["district"])
					return authResponse(), nil
				})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "Email already registered",
			body: `{"email":"jane@example.rw","password":"secret123","fullName":"Jane","role":"worker"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, domain.ErrEmailTaken)
			},
			expectedCode:  http.StatusConflict,
			expectedError: "Email already registered",
		},
		{
			name:          "Missing fields",
			body:          `{"email":"jane@example.rw"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Missing required fields: password, fullName, role",
		},
		{
			name:          "Unknown role",
			body:          `{"email":"jane@example.rw","password":"secret123","fullName":"Jane","role":"guest"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "role must be one of: worker, homeowner, admin",
		},
		{
			name:          "Invalid request body",
			body:          `{invalid json`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()

			handler.Register(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			if tt.expectedError != "" {
				var resp utils.Response
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedError, resp.Error)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful login",
			body: `{"email":"jane@example.rw","password":"secret123"}`,
			prepareMock: func() {
				service.EXPECT().Login(gomock.Any(), "jane@example.rw", "secret123").Return(authResponse(), nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Invalid credentials",
			body: `{"email":"jane@example.rw","password":"wrong"}`,
			prepareMock: func() {
				service.EXPECT().Login(gomock.Any(), "jane@example.rw", "wrong").Return(nil, domain.ErrInvalidCredentials)
			},
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid credentials",
		},
		{
			name: "Supabase unreachable",
			body: `{"email":"jane@example.rw","password":"secret123"}`,
			prepareMock: func() {
				service.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrUpstream)
			},
			expectedCode:  http.StatusBadGateway,
			expectedError: "Upstream service unavailable",
		},
		{
			name:          "Invalid request body",
			body:          `{invalid json`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			var resp utils.Response
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedError, resp.Error)
			assert.Equal(t, tt.expectedError == "", resp.Success)
		})
	}
}

func TestMeHandler(t *testing.T) {
	handler, service := NewMock(t)
	p := &pkgauth.Principal{UserID: uuid.New(), Role: domain.RoleWorker}
	service.EXPECT().Me(gomock.Any(), p).Return(&dto.MeResponseDTO{Details: domain.Record{"district": "Gasabo"}}, nil)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(pkgauth.WithPrincipal(req.Context(), p))
	rr := httptest.NewRecorder()

	handler.Me(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"district":"Gasabo"`)
}

func TestForgotPasswordHandler(t *testing.T) {
	handler, service := NewMock(t)
	service.EXPECT().ForgotPassword(gomock.Any(), "nobody@example.rw").Return(nil)

	req := httptest.NewRequest("POST", "/api/auth/forgot-password", bytes.NewReader([]byte(`{"email":"nobody@example.rw"}`)))
	rr := httptest.NewRecorder()

	handler.ForgotPassword(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestResetPasswordHandler(t *testing.T) {
	handler, service := NewMock(t)
	service.EXPECT().ResetPassword(gomock.Any(), dto.ResetPasswordRequestDTO{
		Email: "jane@example.rw", Token: "tok", NewPassword: "newsecret",
	}).Return(domain.NewValidationError("Invalid or expired reset token"))

	body := `{"email":"jane@example.rw","token":"tok","newPassword":"newsecret"}`
	req := httptest.NewRequest("POST", "/api/auth/reset-password", bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()

	handler.ResetPassword(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid or expired reset token")
}
