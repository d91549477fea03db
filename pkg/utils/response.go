package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

// Response is the envelope every API response is wrapped in.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Response{Success: true, Data: data})
}

func RespondWithMessage(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Response{Success: true, Data: data, Message: message})
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Success: false, Error: message})
}

// RespondWithServiceError translates a service error into a status code and a
// message from a fixed set. Only validation messages are passed through.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		RespondWithError(w, http.StatusBadRequest, vErr.Msg)
	case errors.Is(err, domain.ErrInsufficientBalance):
		RespondWithError(w, http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, domain.ErrInvalidTransition):
		RespondWithError(w, http.StatusBadRequest, "Invalid status transition")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		RespondWithError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, domain.ErrEmailTaken):
		RespondWithError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, domain.ErrConflict):
		RespondWithError(w, http.StatusConflict, "Resource was modified by another request")
	case errors.Is(err, domain.ErrUpstream):
		RespondWithError(w, http.StatusBadGateway, "Upstream service unavailable")
	default:
		zap.L().Error("unhandled service error", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, code int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("can't write response", zap.Error(err))
	}
}
