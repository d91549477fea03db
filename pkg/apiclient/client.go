// Package apiclient is a Go client for the HouseHelp API. Every call returns
// an Envelope; transport and decoding failures are folded into it instead of
// being returned as errors.
package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/divinecia/Househelp-sub000/pkg/clients"
)

const refreshPath = "/api/auth/refresh"

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Status  int             `json:"-"`
}

// Decode unmarshals the data field into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

func failure(status int, msg string) Envelope {
	return Envelope{Success: false, Error: msg, Status: status}
}

// Session holds the caller's tokens. It is safe for concurrent use and is
// shared by every request made through one Client.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func (s *Session) Set(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = accessToken, refreshToken
}

func (s *Session) Tokens() (accessToken, refreshToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *Session) Clear() {
	s.Set("", "")
}

type requestOptions struct {
	skipAuth bool
	retried  bool
}

type RequestOption func(*requestOptions)

// SkipAuth sends the request without an Authorization header.
func SkipAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

type Client struct {
	baseURL string
	http    clients.HTTPClientI
	session *Session
}

func New(baseURL string, session *Session, httpClient clients.HTTPClientI) *Client {
	if session == nil {
		session = &Session{}
	}
	if httpClient == nil {
		httpClient = clients.NewHTTPClient()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, session: session}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) Envelope {
	return c.do(ctx, http.MethodGet, endpoint, nil, opts)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) Envelope {
	return c.do(ctx, http.MethodPost, endpoint, body, opts)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) Envelope {
	return c.do(ctx, http.MethodPut, endpoint, body, opts)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) Envelope {
	return c.do(ctx, http.MethodPatch, endpoint, body, opts)
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) Envelope {
	return c.do(ctx, http.MethodDelete, endpoint, nil, opts)
}

type sessionData struct {
	Session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"session"`
}

// Login signs in and stores the returned tokens in the session.
func (c *Client) Login(ctx context.Context, email, password string) Envelope {
	env := c.Post(ctx, "/api/auth/login", map[string]string{"email": email, "password": password}, SkipAuth())
	c.storeSession(env)
	return env
}

// Register creates an account. The session is populated when the server
// returns one.
func (c *Client) Register(ctx context.Context, payload map[string]any) Envelope {
	env := c.Post(ctx, "/api/auth/register", payload, SkipAuth())
	c.storeSession(env)
	return env
}

func (c *Client) Logout(ctx context.Context) Envelope {
	env := c.Post(ctx, "/api/auth/logout", nil)
	c.session.Clear()
	return env
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, opts []RequestOption) Envelope {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	env := c.send(ctx, method, endpoint, body, o)
	if env.Status != http.StatusUnauthorized || o.skipAuth || o.retried {
		return env
	}
	if !c.refresh(ctx) {
		return env
	}
	o.retried = true
	return c.send(ctx, method, endpoint, body, o)
}

func (c *Client) refresh(ctx context.Context) bool {
	_, refreshToken := c.session.Tokens()
	if refreshToken == "" {
		return false
	}
	env := c.send(ctx, http.MethodPost, refreshPath, map[string]string{"refreshToken": refreshToken}, requestOptions{skipAuth: true})
	if !env.Success {
		c.session.Clear()
		return false
	}
	return c.storeSession(env)
}

func (c *Client) storeSession(env Envelope) bool {
	if !env.Success {
		return false
	}
	var data sessionData
	if err := env.Decode(&data); err != nil || data.Session.AccessToken == "" {
		return false
	}
	c.session.Set(data.Session.AccessToken, data.Session.RefreshToken)
	return true
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, o requestOptions) Envelope {
	headers := http.Header{}
	headers.Set("Accept", "application/json")

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return failure(0, err.Error())
		}
		headers.Set("Content-Type", "application/json")
	}
	if !o.skipAuth {
		if access, _ := c.session.Tokens(); access != "" {
			headers.Set("Authorization", "Bearer "+access)
		}
	}

	code, respBody, _, err := c.http.Send(ctx, method, c.baseURL+endpoint, headers, payload)
	if err != nil {
		return failure(code, err.Error())
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return failure(code, "invalid response from server")
	}
	env.Status = code
	if code >= http.StatusBadRequest {
		env.Success = false
		if env.Error == "" {
			env.Error = http.StatusText(code)
		}
	}
	return env
}
