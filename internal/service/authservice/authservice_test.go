package authservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/supabase"
)

type mocks struct {
	profiles *MockProfileRepo
	details  *MockDetailsRepo
	resets   *MockResetRepo
	provider *MockProvider
	mailer   *MockMailer
	hash     *auth.MockHashServiceInterface
	jwt      *auth.MockJWTServiceInterface
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		profiles: NewMockProfileRepo(ctrl),
		details:  NewMockDetailsRepo(ctrl),
		resets:   NewMockResetRepo(ctrl),
		provider: NewMockProvider(ctrl),
		mailer:   NewMockMailer(ctrl),
		hash:     auth.NewMockHashServiceInterface(ctrl),
		jwt:      auth.NewMockJWTServiceInterface(ctrl),
	}
	service := New(m.profiles, m.details, m.resets, m.provider, m.mailer, m.hash, m.jwt, "https://househelp.rw/")
	return service, m
}

func TestRegister(t *testing.T) {
	userID := uuid.New()
	user := &supabase.User{ID: userID, Email: "jane@example.rw"}
	session := &supabase.Session{AccessToken: "at", RefreshToken: "rt", User: user}

	baseReq := dto.RegisterRequestDTO{
		Email:    " Jane@Example.rw ",
		Password: "secret123",
		FullName: "Jane Uwase",
		Role:     "homeowner",
		Fields:   map[string]any{"phoneNumber": "0788123456", "pets": "Yes", "id": "forged"},
	}

	tests := []struct {
		name        string
		req         dto.RegisterRequestDTO
		prepareMock func(m *mocks)
		wantErr     error
	}{
		{
			name: "Successful registration",
			req:  baseReq,
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), "jane@example.rw").Return(nil, nil)
				m.provider.EXPECT().SignUp(gomock.Any(), "jane@example.rw", "secret123",
					map[string]any{"full_name": "Jane Uwase", "role": "homeowner"}).Return(user, session, nil)
				m.profiles.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
						assert.Equal(t, domain.RoleHomeowner, p.Role)
						p.ID = uuid.New()
						return p, nil
					})
				m.details.EXPECT().Insert(gomock.Any(), "homeowners", domain.Record{
					"phone":     "0788123456",
					"has_pets":  true,
					"user_id":   userID,
					"full_name": "Jane Uwase",
					"email":     "jane@example.rw",
				}).Return(domain.Record{"id": uuid.New()}, nil)
				m.mailer.EXPECT().SendWelcome(gomock.Any(), "jane@example.rw", "Jane Uwase", "homeowner").Return(nil)
			},
		},
		{
			name: "Detail insert failure keeps the account",
			req:  baseReq,
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
				m.provider.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(user, session, nil)
				m.profiles.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p *domain.UserProfile) (*domain.UserProfile, error) { return p, nil })
				m.details.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
				m.mailer.EXPECT().SendWelcome(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
			},
		},
		{
			name:        "Unknown role",
			req:         dto.RegisterRequestDTO{Email: "a@b.rw", Password: "secret123", FullName: "A", Role: "superuser"},
			prepareMock: func(m *mocks) {},
			wantErr:     &domain.ValidationError{},
		},
		{
			name: "Email already registered",
			req:  baseReq,
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(&domain.UserProfile{Email: "jane@example.rw"}, nil)
			},
			wantErr: domain.ErrEmailTaken,
		},
		{
			name: "Provider rejects sign up",
			req:  baseReq,
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
				m.provider.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil, domain.ErrEmailTaken)
			},
			wantErr: domain.ErrEmailTaken,
		},
		{
			name: "Profile insert failure",
			req:  baseReq,
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
				m.provider.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil, nil)
				m.profiles.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, domain.ErrConflict)
			},
			wantErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			resp, err := service.Register(context.Background(), tt.req)

			if tt.wantErr != nil {
				var vErr *domain.ValidationError
				if errors.As(tt.wantErr, &vErr) {
					assert.True(t, errors.As(err, &vErr))
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, resp.User.ID)
			assert.Equal(t, domain.RoleHomeowner, resp.Profile.Role)
		})
	}
}

func TestLogin(t *testing.T) {
	userID := uuid.New()
	user := &supabase.User{ID: userID, Email: "w@example.rw", UserMetadata: map[string]any{"role": "worker", "full_name": "Eric"}}
	session := &supabase.Session{AccessToken: "at", User: user}

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		wantRole    domain.Role
		wantErr     error
	}{
		{
			name: "Profile found",
			prepareMock: func(m *mocks) {
				m.provider.EXPECT().SignInWithPassword(gomock.Any(), "w@example.rw", "pw").Return(session, nil)
				m.profiles.EXPECT().FindByUserID(gomock.Any(), userID).Return(&domain.UserProfile{UserID: userID, Role: domain.RoleAdmin}, nil)
			},
			wantRole: domain.RoleAdmin,
		},
		{
			name: "Missing profile falls back to metadata role",
			prepareMock: func(m *mocks) {
				m.provider.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).Return(session, nil)
				m.profiles.EXPECT().FindByUserID(gomock.Any(), userID).Return(nil, nil)
			},
			wantRole: domain.RoleWorker,
		},
		{
			name: "Bad credentials",
			prepareMock: func(m *mocks) {
				m.provider.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrInvalidCredentials)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			resp, err := service.Login(context.Background(), "W@example.rw", "pw")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, resp.Profile.Role)
			assert.Equal(t, "at", resp.Session.AccessToken)
		})
	}
}

func TestMe(t *testing.T) {
	service, m := NewMock(t)
	p := &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker, SubjectID: uuid.New(), Token: "at"}

	m.provider.EXPECT().GetUser(gomock.Any(), "at").Return(&supabase.User{ID: p.UserID}, nil)
	m.profiles.EXPECT().FindByUserID(gomock.Any(), p.UserID).Return(&domain.UserProfile{UserID: p.UserID, Role: domain.RoleWorker}, nil)
	m.details.EXPECT().Get(gomock.Any(), "workers", p.SubjectID).Return(domain.Record{"id": p.SubjectID, "skills": "cooking"}, nil)

	resp, err := service.Me(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, "cooking", resp.Details["skills"])
}

func TestForgotPassword(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
	}{
		{
			name: "Known email gets a link",
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), "jane@example.rw").Return(&domain.UserProfile{Email: "jane@example.rw"}, nil)
				m.hash.EXPECT().NewToken().Return("tok123", nil)
				m.hash.EXPECT().Hash("tok123").Return("hashed", nil)
				m.resets.EXPECT().Create(gomock.Any(), &domain.PasswordReset{
					Email: "jane@example.rw", TokenHash: "hashed", ExpiresAt: now.Add(time.Hour),
				}).Return(nil)
				m.mailer.EXPECT().SendPasswordReset(gomock.Any(), "jane@example.rw", gomock.Any()).DoAndReturn(
					func(_ context.Context, _, link string) error {
						assert.True(t, strings.HasPrefix(link, "https://househelp.rw/reset-password?"), link)
						assert.Contains(t, link, "token=tok123")
						assert.Contains(t, link, "email=jane%40example.rw")
						return nil
					})
			},
		},
		{
			name: "Unknown email is silent",
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
			},
		},
		{
			name: "Storage failure is silent",
			prepareMock: func(m *mocks) {
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(&domain.UserProfile{}, nil)
				m.hash.EXPECT().NewToken().Return("tok", nil)
				m.hash.EXPECT().Hash("tok").Return("hashed", nil)
				m.resets.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			service.now = func() time.Time { return now }
			tt.prepareMock(m)

			assert.NoError(t, service.ForgotPassword(context.Background(), "Jane@example.rw"))
		})
	}
}

func TestResetPassword(t *testing.T) {
	resetID := uuid.New()
	userID := uuid.New()
	req := dto.ResetPasswordRequestDTO{Email: "jane@example.rw", Token: "tok", NewPassword: "newsecret"}

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		wantErr     bool
	}{
		{
			name: "Valid token",
			prepareMock: func(m *mocks) {
				m.resets.EXPECT().LatestActive(gomock.Any(), "jane@example.rw").Return(&domain.PasswordReset{ID: resetID, TokenHash: "hashed"}, nil)
				m.hash.EXPECT().Compare("hashed", "tok").Return(true)
				m.profiles.EXPECT().FindByEmail(gomock.Any(), "jane@example.rw").Return(&domain.UserProfile{UserID: userID}, nil)
				m.resets.EXPECT().MarkUsed(gomock.Any(), resetID).Return(true, nil)
				m.provider.EXPECT().UpdateUserPassword(gomock.Any(), userID, "newsecret").Return(nil)
			},
		},
		{
			name: "No active token",
			prepareMock: func(m *mocks) {
				m.resets.EXPECT().LatestActive(gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			wantErr: true,
		},
		{
			name: "Token mismatch",
			prepareMock: func(m *mocks) {
				m.resets.EXPECT().LatestActive(gomock.Any(), gomock.Any()).Return(&domain.PasswordReset{ID: resetID, TokenHash: "hashed"}, nil)
				m.hash.EXPECT().Compare("hashed", "tok").Return(false)
			},
			wantErr: true,
		},
		{
			name: "Token already used concurrently",
			prepareMock: func(m *mocks) {
				m.resets.EXPECT().LatestActive(gomock.Any(), gomock.Any()).Return(&domain.PasswordReset{ID: resetID, TokenHash: "hashed"}, nil)
				m.hash.EXPECT().Compare(gomock.Any(), gomock.Any()).Return(true)
				m.profiles.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(&domain.UserProfile{UserID: userID}, nil)
				m.resets.EXPECT().MarkUsed(gomock.Any(), resetID).Return(false, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			err := service.ResetPassword(context.Background(), req)

			if tt.wantErr {
				var vErr *domain.ValidationError
				assert.True(t, errors.As(err, &vErr), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	subjectID := uuid.New()
	claims := &auth.Claims{Email: "w@example.rw", StandardClaims: jwt.StandardClaims{Subject: userID.String()}}

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		want        *auth.Principal
		wantErr     error
	}{
		{
			name: "Local verification",
			prepareMock: func(m *mocks) {
				m.jwt.EXPECT().Enabled().Return(true)
				m.jwt.EXPECT().ValidateToken("tok").Return(claims, nil)
				m.profiles.EXPECT().FindByUserID(gomock.Any(), userID).Return(&domain.UserProfile{UserID: userID, Role: domain.RoleWorker}, nil)
				m.profiles.EXPECT().SubjectID(gomock.Any(), domain.RoleWorker, userID).Return(subjectID, nil)
			},
			want: &auth.Principal{UserID: userID, Role: domain.RoleWorker, SubjectID: subjectID, Email: "w@example.rw", Token: "tok"},
		},
		{
			name: "Provider verification",
			prepareMock: func(m *mocks) {
				m.jwt.EXPECT().Enabled().Return(false)
				m.provider.EXPECT().GetUser(gomock.Any(), "tok").Return(&supabase.User{ID: userID, Email: "w@example.rw"}, nil)
				m.profiles.EXPECT().FindByUserID(gomock.Any(), userID).Return(&domain.UserProfile{UserID: userID, Role: domain.RoleWorker}, nil)
				m.profiles.EXPECT().SubjectID(gomock.Any(), domain.RoleWorker, userID).Return(subjectID, nil)
			},
			want: &auth.Principal{UserID: userID, Role: domain.RoleWorker, SubjectID: subjectID, Email: "w@example.rw", Token: "tok"},
		},
		{
			name: "Invalid token",
			prepareMock: func(m *mocks) {
				m.jwt.EXPECT().Enabled().Return(true)
				m.jwt.EXPECT().ValidateToken("tok").Return(nil, auth.ErrInvalidToken)
			},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name: "Provider outage is not a 401",
			prepareMock: func(m *mocks) {
				m.jwt.EXPECT().Enabled().Return(false)
				m.provider.EXPECT().GetUser(gomock.Any(), "tok").Return(nil, domain.ErrUpstream)
			},
			wantErr: domain.ErrUpstream,
		},
		{
			name: "No profile",
			prepareMock: func(m *mocks) {
				m.jwt.EXPECT().Enabled().Return(true)
				m.jwt.EXPECT().ValidateToken("tok").Return(claims, nil)
				m.profiles.EXPECT().FindByUserID(gomock.Any(), userID).Return(nil, nil)
			},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			p, err := service.Authenticate(context.Background(), "tok")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}
