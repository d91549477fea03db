package authservice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/fieldmap"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/supabase"
)

const resetTTL = time.Hour

type ProfileRepo interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	Create(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
	SubjectID(ctx context.Context, role domain.Role, userID uuid.UUID) (uuid.UUID, error)
}

// DetailsRepo stores the role-specific row created alongside a profile.
type DetailsRepo interface {
	Insert(ctx context.Context, table string, rec domain.Record) (domain.Record, error)
	Get(ctx context.Context, table string, id uuid.UUID) (domain.Record, error)
}

type ResetRepo interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	LatestActive(ctx context.Context, email string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
}

// Provider is the external identity provider.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.User, *supabase.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, password string) error
}

type Mailer interface {
	SendWelcome(ctx context.Context, to, fullName, role string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

type Service struct {
	profiles    ProfileRepo
	details     DetailsRepo
	resets      ResetRepo
	provider    Provider
	mailer      Mailer
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	appURL      string
	now         func() time.Time
}

func New(
	profiles ProfileRepo,
	details DetailsRepo,
	resets ResetRepo,
	provider Provider,
	mailer Mailer,
	hashService auth.HashServiceInterface,
	jwtService auth.JWTServiceInterface,
	appURL string,
) *Service {
	return &Service{
		profiles:    profiles,
		details:     details,
		resets:      resets,
		provider:    provider,
		mailer:      mailer,
		hashService: hashService,
		jwtService:  jwtService,
		appURL:      strings.TrimRight(appURL, "/"),
		now:         time.Now,
	}
}

// Register creates the provider account, the profile and the role row. A
// failed role row insert is logged and does not undo the account.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequestDTO) (*dto.AuthResponseDTO, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("can't look up profile", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		zap.L().Info("email already registered", zap.String("email", email))
		return nil, domain.ErrEmailTaken
	}

	user, session, err := s.provider.SignUp(ctx, email, req.Password, map[string]any{
		"full_name": req.FullName,
		"role":      string(role),
	})
	if err != nil {
		zap.L().Error("sign up failed", zap.Error(err), zap.String("email", email))
		return nil, err
	}

	profile, err := s.profiles.Create(ctx, &domain.UserProfile{
		UserID:   user.ID,
		FullName: req.FullName,
		Role:     role,
		Email:    email,
	})
	if err != nil {
		zap.L().Error("can't create profile", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, err
	}

	s.createDetails(ctx, profile, req.Fields)

	if err := s.mailer.SendWelcome(ctx, email, req.FullName, string(role)); err != nil {
		zap.L().Warn("welcome email not sent", zap.Error(err), zap.String("email", email))
	}

	zap.L().Info("user successfully registered", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))
	return &dto.AuthResponseDTO{User: user, Session: session, Profile: profile}, nil
}

func (s *Service) createDetails(ctx context.Context, profile *domain.UserProfile, fields map[string]any) {
	entity := fieldmap.Entity(profile.Role)
	rec, err := fieldmap.Map(entity, fields)
	if err != nil {
		zap.L().Warn("role details dropped", zap.Error(err), zap.String("user_id", profile.UserID.String()))
		rec = domain.Record{}
	}
	rec = fieldmap.Restrict(entity, rec)
	delete(rec, "status")
	delete(rec, "rating")
	rec["user_id"] = profile.UserID
	rec["full_name"] = profile.FullName
	rec["email"] = profile.Email
	if _, err := s.details.Insert(ctx, profile.Role.Table(), rec); err != nil {
		zap.L().Error("can't create role details", zap.Error(err),
			zap.String("user_id", profile.UserID.String()), zap.String("table", profile.Role.Table()))
	}
}

// Login returns the session and profile. A missing profile falls back to the
// role recorded in the provider metadata.
func (s *Service) Login(ctx context.Context, email, password string) (*dto.AuthResponseDTO, error) {
	session, err := s.provider.SignInWithPassword(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		zap.L().Info("login failed", zap.Error(err))
		return nil, err
	}
	if session.User == nil {
		return nil, domain.ErrUpstream
	}

	profile, err := s.profiles.FindByUserID(ctx, session.User.ID)
	if err != nil {
		zap.L().Error("can't load profile", zap.Error(err), zap.String("user_id", session.User.ID.String()))
		return nil, err
	}
	if profile == nil {
		profile = fallbackProfile(session.User)
	}
	return &dto.AuthResponseDTO{User: session.User, Session: session, Profile: profile}, nil
}

func fallbackProfile(user *supabase.User) *domain.UserProfile {
	role, _ := domain.ParseRole(user.MetadataRole())
	fullName, _ := user.UserMetadata["full_name"].(string)
	return &domain.UserProfile{UserID: user.ID, Role: role, Email: user.Email, FullName: fullName}
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error) {
	session, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponseDTO{User: session.User, Session: session}, nil
}

func (s *Service) Logout(ctx context.Context, p *auth.Principal) error {
	return s.provider.SignOut(ctx, p.Token)
}

// Me returns the caller's account, profile and role row.
func (s *Service) Me(ctx context.Context, p *auth.Principal) (*dto.MeResponseDTO, error) {
	user, err := s.provider.GetUser(ctx, p.Token)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrNotFound
	}

	resp := &dto.MeResponseDTO{User: user, Profile: profile}
	if p.SubjectID == uuid.Nil {
		return resp, nil
	}
	details, err := s.details.Get(ctx, p.Role.Table(), p.SubjectID)
	if err != nil {
		zap.L().Error("can't load role details", zap.Error(err), zap.String("user_id", p.UserID.String()))
		return nil, err
	}
	resp.Details = details
	return resp, nil
}

// ForgotPassword mails a reset link when the email belongs to a profile. It
// reports success either way.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("can't look up profile", zap.Error(err))
		return nil
	}
	if profile == nil {
		zap.L().Info("password reset for unknown email")
		return nil
	}

	token, err := s.hashService.NewToken()
	if err != nil {
		zap.L().Error("can't generate reset token", zap.Error(err))
		return nil
	}
	hashed, err := s.hashService.Hash(token)
	if err != nil {
		zap.L().Error("can't hash reset token", zap.Error(err))
		return nil
	}
	reset := &domain.PasswordReset{Email: email, TokenHash: hashed, ExpiresAt: s.now().Add(resetTTL)}
	if err := s.resets.Create(ctx, reset); err != nil {
		zap.L().Error("can't store reset token", zap.Error(err))
		return nil
	}

	if err := s.mailer.SendPasswordReset(ctx, email, s.resetLink(email, token)); err != nil {
		zap.L().Error("password reset email not sent", zap.Error(err))
	}
	return nil
}

func (s *Service) resetLink(email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return s.appURL + "/reset-password?" + q.Encode()
}

var errInvalidReset = domain.NewValidationError("Invalid or expired reset token", "token")

func (s *Service) ResetPassword(ctx context.Context, req dto.ResetPasswordRequestDTO) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	reset, err := s.resets.LatestActive(ctx, email)
	if err != nil {
		return err
	}
	if reset == nil || !s.hashService.Compare(reset.TokenHash, req.Token) {
		return errInvalidReset
	}
	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if profile == nil {
		return errInvalidReset
	}

	used, err := s.resets.MarkUsed(ctx, reset.ID)
	if err != nil {
		return err
	}
	if !used {
		return errInvalidReset
	}
	if err := s.provider.UpdateUserPassword(ctx, profile.UserID, req.NewPassword); err != nil {
		zap.L().Error("can't update password", zap.Error(err), zap.String("user_id", profile.UserID.String()))
		return err
	}
	zap.L().Info("password reset", zap.String("user_id", profile.UserID.String()))
	return nil
}

// Authenticate verifies the token locally when a signing secret is
// configured and asks the provider otherwise.
func (s *Service) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	userID, email, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("can't load profile", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrForbidden
	}

	subjectID, err := s.profiles.SubjectID(ctx, profile.Role, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}
	if email == "" {
		email = profile.Email
	}
	return &auth.Principal{
		UserID:    userID,
		Role:      profile.Role,
		SubjectID: subjectID,
		Email:     email,
		Token:     token,
	}, nil
}

func (s *Service) verify(ctx context.Context, token string) (uuid.UUID, string, error) {
	if s.jwtService.Enabled() {
		claims, err := s.jwtService.ValidateToken(token)
		if err != nil {
			return uuid.Nil, "", domain.ErrUnauthorized
		}
		userID, err := claims.UserID()
		if err != nil {
			return uuid.Nil, "", domain.ErrUnauthorized
		}
		return userID, claims.Email, nil
	}

	user, err := s.provider.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return uuid.Nil, "", err
		}
		return uuid.Nil, "", domain.ErrUnauthorized
	}
	return user.ID, user.Email, nil
}
