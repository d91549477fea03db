// Package supabase is a small client for the Supabase Auth (GoTrue) REST API.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/clients"
)

type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

// MetadataRole is the role recorded at sign-up, if any.
func (u *User) MetadataRole() string {
	role, _ := u.UserMetadata["role"].(string)
	return role
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user,omitempty"`
}

type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       clients.HTTPClientI
}

func NewClient(baseURL, anonKey, serviceKey string, httpClient clients.HTTPClientI) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		serviceKey: serviceKey,
		http:       httpClient,
	}
}

// SignUp creates an account. When e-mail confirmation is enabled the
// returned session is nil.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*User, *Session, error) {
	body := map[string]any{"email": email, "password": password, "data": metadata}

	var raw json.RawMessage
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/signup", c.headers(""), body, &raw); err != nil {
		return nil, nil, mapError("sign up", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err == nil && session.AccessToken != "" && session.User != nil {
		return session.User, &session, nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, nil, fmt.Errorf("sign up: decode user: %w", err)
	}
	return &user, nil, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", map[string]string{"email": email, "password": password})
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// GetUser resolves the user an access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if _, err := clients.DoJSON(ctx, c.http, http.MethodGet, c.baseURL+"/user", c.headers(accessToken), nil, &user); err != nil {
		var sErr *clients.StatusError
		if errors.As(err, &sErr) && (sErr.Code == http.StatusUnauthorized || sErr.Code == http.StatusForbidden) {
			return nil, domain.ErrUnauthorized
		}
		return nil, mapError("get user", err)
	}
	return &user, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/logout", c.headers(accessToken), nil, nil); err != nil {
		return mapError("sign out", err)
	}
	return nil
}

// UpdateUserPassword sets a password through the admin API and requires the
// service role key.
func (c *Client) UpdateUserPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if c.serviceKey == "" {
		return fmt.Errorf("update password: %w: service role key is not configured", domain.ErrUpstream)
	}
	headers := http.Header{}
	headers.Set("apikey", c.serviceKey)
	headers.Set("Authorization", "Bearer "+c.serviceKey)

	url := c.baseURL + "/admin/users/" + userID.String()
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPut, url, headers, map[string]string{"password": password}, nil); err != nil {
		return mapError("update password", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context, grant string, body any) (*Session, error) {
	var session Session
	url := c.baseURL + "/token?grant_type=" + grant
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, url, c.headers(""), body, &session); err != nil {
		return nil, mapError(grant+" grant", err)
	}
	return &session, nil
}

func (c *Client) headers(accessToken string) http.Header {
	h := http.Header{}
	h.Set("apikey", c.anonKey)
	if accessToken != "" {
		h.Set("Authorization", "Bearer "+accessToken)
	}
	return h
}

func mapError(op string, err error) error {
	var sErr *clients.StatusError
	if !errors.As(err, &sErr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
	}

	var body errorBody
	_ = json.Unmarshal(sErr.Body, &body)
	code := strings.ToLower(body.ErrorCode + " " + body.Error)
	msg := strings.ToLower(body.Msg + " " + body.ErrorDescription)

	switch {
	case strings.Contains(code, "user_already_exists"), strings.Contains(code, "email_exists"),
		strings.Contains(msg, "already registered"):
		return domain.ErrEmailTaken
	case strings.Contains(code, "invalid_credentials"), strings.Contains(code, "invalid_grant"):
		return domain.ErrInvalidCredentials
	case strings.Contains(code, "weak_password"):
		return domain.NewValidationError("Password is too weak", "password")
	case sErr.Code == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}
