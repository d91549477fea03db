// Package flutterwave talks to the Flutterwave v3 API: hosted payment links,
// transaction verification, refunds and webhook authentication.
package flutterwave

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/divinecia/Househelp-sub000/pkg/clients"
)

const HashHeader = "verif-hash"

var ErrRejected = errors.New("flutterwave rejected the request")

type Customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Name        string `json:"name,omitempty"`
}

type PaymentRequest struct {
	TxRef          string   `json:"tx_ref"`
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	RedirectURL    string   `json:"redirect_url"`
	PaymentOptions string   `json:"payment_options,omitempty"`
	Customer       Customer `json:"customer"`
	Title          string   `json:"-"`
}

type Transaction struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// WebhookEvent is the body Flutterwave posts to the webhook URL.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type Client struct {
	baseURL    string
	secretKey  string
	secretHash string
	http       clients.HTTPClientI
}

func NewClient(baseURL, secretKey, secretHash string, httpClient clients.HTTPClientI) *Client {
	return &Client{baseURL: baseURL, secretKey: secretKey, secretHash: secretHash, http: httpClient}
}

// CreatePaymentLink returns the hosted checkout URL for req.
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentRequest) (string, error) {
	body := map[string]any{
		"tx_ref":          req.TxRef,
		"amount":          strconv.FormatFloat(req.Amount, 'f', 2, 64),
		"currency":        req.Currency,
		"redirect_url":    req.RedirectURL,
		"payment_options": req.PaymentOptions,
		"customer":        req.Customer,
		"customizations":  map[string]string{"title": req.Title},
	}
	var resp envelope[struct {
		Link string `json:"link"`
	}]
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/v3/payments", c.headers(), body, &resp); err != nil {
		return "", fmt.Errorf("create payment link: %w", err)
	}
	if resp.Status != "success" || resp.Data.Link == "" {
		return "", fmt.Errorf("create payment link: %w: %s", ErrRejected, resp.Message)
	}
	return resp.Data.Link, nil
}

func (c *Client) VerifyByReference(ctx context.Context, txRef string) (*Transaction, error) {
	u := c.baseURL + "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	var resp envelope[Transaction]
	if _, err := clients.DoJSON(ctx, c.http, http.MethodGet, u, c.headers(), nil, &resp); err != nil {
		return nil, fmt.Errorf("verify %s: %w", txRef, err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("verify %s: %w: %s", txRef, ErrRejected, resp.Message)
	}
	return &resp.Data, nil
}

// Refund refunds amount of a settled transaction; zero refunds it in full.
func (c *Client) Refund(ctx context.Context, transactionID int64, amount float64) error {
	body := map[string]any{}
	if amount > 0 {
		body["amount"] = amount
	}
	u := fmt.Sprintf("%s/v3/transactions/%d/refund", c.baseURL, transactionID)
	var resp envelope[map[string]any]
	if _, err := clients.DoJSON(ctx, c.http, http.MethodPost, u, c.headers(), body, &resp); err != nil {
		return fmt.Errorf("refund %d: %w", transactionID, err)
	}
	if resp.Status != "success" {
		return fmt.Errorf("refund %d: %w: %s", transactionID, ErrRejected, resp.Message)
	}
	return nil
}

// ValidWebhook compares the verif-hash header with the configured secret hash.
func (c *Client) ValidWebhook(header string) bool {
	if c.secretHash == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(c.secretHash)) == 1
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.secretKey)
	return h
}
