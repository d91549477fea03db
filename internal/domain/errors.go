package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("conflict")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUpstream            = errors.New("upstream service failure")
)

// ValidationError is returned for payloads that fail boundary checks. Its
// message is safe to show to the caller.
type ValidationError struct {
	Msg    string
	Fields []string
}

func NewValidationError(msg string, fields ...string) *ValidationError {
	return &ValidationError{Msg: msg, Fields: fields}
}

// MissingFields builds the joined "Missing required fields" error.
func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{
		Msg:    "Missing required fields: " + strings.Join(fields, ", "),
		Fields: fields,
	}
}

func (e *ValidationError) Error() string {
	return e.Msg
}
