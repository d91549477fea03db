package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/divinecia/Househelp-sub000/internal/dto"
	pkgauth "github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

type Service interface {
	Register(ctx context.Context, req dto.RegisterRequestDTO) (*dto.AuthResponseDTO, error)
	Login(ctx context.Context, email, password string) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error)
	Logout(ctx context.Context, p *pkgauth.Principal) error
	Me(ctx context.Context, p *pkgauth.Principal) (*dto.MeResponseDTO, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequestDTO) error
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Create a Supabase account, a profile and the role-specific row. Extra body fields are mapped onto the role table.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RegisterRequestDTO	true	"Register request body"
//	@Success		201		{object}	utils.Response{data=dto.AuthResponseDTO}
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		409		{object}	utils.Response	"Email already registered"
//	@Failure		502		{object}	utils.Response	"Upstream service unavailable"
//	@Router			/api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req dto.RegisterRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	_ = json.Unmarshal(body, &req.Fields)

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusCreated, "User registered successfully", resp)
}

// Login godoc
//
//	@Summary		Sign in
//	@Description	Exchange email and password for a Supabase session
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	utils.Response{data=dto.AuthResponseDTO}
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Refresh godoc
//
//	@Summary	Refresh a session
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.RefreshRequestDTO	true	"Refresh token"
//	@Success	200		{object}	utils.Response{data=dto.AuthResponseDTO}
//	@Failure	401		{object}	utils.Response	"Invalid credentials"
//	@Router		/api/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Logout godoc
//
//	@Summary	Sign out
//	@Tags		Auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	utils.Response
//	@Router		/api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, _ := pkgauth.FromContext(r.Context())
	if err := h.authService.Logout(r.Context(), p); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Logged out", nil)
}

// Me godoc
//
//	@Summary	Current user
//	@Tags		Auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	utils.Response{data=dto.MeResponseDTO}
//	@Failure	401	{object}	utils.Response	"Unauthorized"
//	@Router		/api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := pkgauth.FromContext(r.Context())
	resp, err := h.authService.Me(r.Context(), p)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ForgotPassword godoc
//
//	@Summary		Request a password reset
//	@Description	Always succeeds so that registered emails cannot be discovered.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ForgotPasswordRequestDTO	true	"Email"
//	@Success		200		{object}	utils.Response
//	@Router			/api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "If the email is registered, a reset link has been sent", nil)
}

// ResetPassword godoc
//
//	@Summary	Reset a password with an emailed token
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.ResetPasswordRequestDTO	true	"Reset request"
//	@Success	200		{object}	utils.Response
//	@Failure	400		{object}	utils.Response	"Invalid or expired reset token"
//	@Router		/api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Password updated", nil)
}
