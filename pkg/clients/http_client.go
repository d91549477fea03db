package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const timeout = time.Second * 15

var ErrFailedCloseResponseBody = errors.New("failed close response body")

type HTTPClientI interface {
	Do(req *http.Request) (*http.Response, error)
	Get(ctx context.Context, url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error)
	Send(ctx context.Context, method, url string, headers http.Header, body []byte) (statusCode int, respBody []byte, respHeaders http.Header, err error)
}

// StatusError is returned by DoJSON for non-2xx responses.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, truncate(e.Body, 256))
}

type HTTPClientAdapter struct {
	client *http.Client
}

func (h *HTTPClientAdapter) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *HTTPClientAdapter) Get(ctx context.Context, url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error) {
	return h.Send(ctx, http.MethodGet, url, headers, nil)
}

func (h *HTTPClientAdapter) Send(ctx context.Context, method, url string, headers http.Header, body []byte) (statusCode int, respBody []byte, respHeaders http.Header, err error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return
	}

	if headers != nil {
		req.Header = headers.Clone()
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			err = errors.Join(err, ErrFailedCloseResponseBody)
		}
	}()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	statusCode = resp.StatusCode
	respHeaders = resp.Header

	return
}

type HTTPClient struct {
	client HTTPClientI
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client: &HTTPClientAdapter{
			client: &http.Client{Timeout: timeout},
		},
	}
}

func (h *HTTPClient) Get(ctx context.Context, url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error) {
	return h.client.Get(ctx, url, headers)
}

func (h *HTTPClient) Send(ctx context.Context, method, url string, headers http.Header, body []byte) (statusCode int, respBody []byte, respHeaders http.Header, err error) {
	return h.client.Send(ctx, method, url, headers, body)
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *HTTPClient) SetClient(mock HTTPClientI) {
	h.client = mock
}

// DoJSON sends in as a JSON body (when non-nil) and decodes a 2xx response
// into out (when non-nil). Other statuses yield a *StatusError.
func DoJSON(ctx context.Context, c HTTPClientI, method, url string, headers http.Header, in, out any) (int, error) {
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Accept", "application/json")

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		headers.Set("Content-Type", "application/json")
	}

	code, respBody, _, err := c.Send(ctx, method, url, headers, body)
	if err != nil {
		return code, err
	}
	if code < 200 || code > 299 {
		return code, &StatusError{Code: code, Body: respBody}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return code, fmt.Errorf("decode response: %w", err)
		}
	}
	return code, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
