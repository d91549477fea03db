// Package paypack is a client for the PayPack mobile money API used for
// MTN and Airtel cash-in and cash-out in Rwanda.
package paypack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/divinecia/Househelp-sub000/pkg/clients"
)

const SignatureHeader = "X-Paypack-Signature"

var ErrNoEvents = errors.New("no events for transaction")

type Transaction struct {
	Ref       string    `json:"ref"`
	Status    string    `json:"status"`
	Kind      string    `json:"kind"`
	Amount    float64   `json:"amount"`
	Provider  string    `json:"provider"`
	Client    string    `json:"client"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookEvent is the body PayPack posts for a processed transaction.
type WebhookEvent struct {
	EventID string      `json:"event_id"`
	Kind    string      `json:"kind"`
	Data    Transaction `json:"data"`
}

type token struct {
	access  string
	expires time.Time
}

type Client struct {
	baseURL       string
	clientID      string
	clientSecret  string
	webhookSecret string
	http          clients.HTTPClientI

	mu    sync.Mutex
	token token
	now   func() time.Time
}

func NewClient(baseURL, clientID, clientSecret, webhookSecret string, httpClient clients.HTTPClientI) *Client {
	return &Client{
		baseURL:       baseURL,
		clientID:      clientID,
		clientSecret:  clientSecret,
		webhookSecret: webhookSecret,
		http:          httpClient,
		now:           time.Now,
	}
}

// CashIn asks the payer's phone to approve a debit of amount.
func (c *Client) CashIn(ctx context.Context, phone string, amount float64) (*Transaction, error) {
	return c.transact(ctx, "cashin", phone, amount)
}

// CashOut sends amount to phone.
func (c *Client) CashOut(ctx context.Context, phone string, amount float64) (*Transaction, error) {
	return c.transact(ctx, "cashout", phone, amount)
}

// Find returns the latest known state of a transaction from its event log.
func (c *Client) Find(ctx context.Context, ref string) (*Transaction, error) {
	headers, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Transactions []struct {
			Data Transaction `json:"data"`
		} `json:"transactions"`
	}
	u := c.baseURL + "/api/events/transactions?ref=" + url.QueryEscape(ref)
	if _, err := clients.DoJSON(ctx, c.http, http.MethodGet, u, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("find %s: %w", ref, err)
	}
	if len(resp.Transactions) == 0 {
		return nil, fmt.Errorf("find %s: %w", ref, ErrNoEvents)
	}
	return &resp.Transactions[0].Data, nil
}

// ValidWebhook checks the base64 HMAC-SHA256 signature of a webhook body.
func (c *Client) ValidWebhook(signature string, body []byte) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

func (c *Client) transact(ctx context.Context, kind, phone string, amount float64) (*Transaction, error) {
	headers, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"amount": amount, "number": phone}
	var tx Transaction
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/transactions/"+kind, headers, body, &tx); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return &tx, nil
}

func (c *Client) authorized(ctx context.Context) (http.Header, error) {
	access, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+access)
	return h, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.access != "" && c.now().Before(c.token.expires) {
		return c.token.access, nil
	}

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
		Expires int64  `json:"expires"`
	}
	body := map[string]string{"client_id": c.clientID, "client_secret": c.clientSecret}
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/auth/agents/authorize", nil, body, &resp); err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}

	// Renew a minute early so a token never expires mid-request.
	expires := c.now().Add(14 * time.Minute)
	if resp.Expires > 0 {
		expires = time.Unix(resp.Expires, 0).Add(-time.Minute)
	}
	c.token = token{access: resp.Access, expires: expires}
	return resp.Access, nil
}
