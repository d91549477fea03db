package dto

import (
	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/supabase"
)

// RegisterRequestDTO holds the account fields of a registration. Everything
// else in the body is kept in Fields and mapped onto the role table.
type RegisterRequestDTO struct {
	Email    string         `json:"email" validate:"required,email" example:"jane@example.rw"`
	Password string         `json:"password" validate:"required,min=6" example:"secret123"`
	FullName string         `json:"fullName" validate:"required" example:"Jane Uwase"`
	Role     string         `json:"role" validate:"required,oneof=worker homeowner admin" example:"homeowner"`
	Fields   map[string]any `json:"-" swaggerignore:"true"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email" example:"jane@example.rw"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

type RefreshRequestDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordRequestDTO struct {
	Email string `json:"email" validate:"required,email" example:"jane@example.rw"`
}

type ResetPasswordRequestDTO struct {
	Email       string `json:"email" validate:"required,email" example:"jane@example.rw"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type AuthResponseDTO struct {
	User    *supabase.User      `json:"user"`
	Session *supabase.Session   `json:"session,omitempty"`
	Profile *domain.UserProfile `json:"profile"`
}

type MeResponseDTO struct {
	User    *supabase.User      `json:"user"`
	Profile *domain.UserProfile `json:"profile"`
	Details domain.Record       `json:"details"`
}
