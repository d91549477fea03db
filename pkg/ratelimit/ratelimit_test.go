package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	l := New(5, 15*time.Minute)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, call("10.0.0.1:5000").Code, "request %d", i+1)
	}
	rr := call("10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "180", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000").Code, "other IPs keep their own budget")
}

func TestRefillAndCleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.nowFun = func() time.Time { return now }

	assert.True(t, l.Allow("ip"))
	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("ip"))

	now = now.Add(2 * time.Minute)
	l.Cleanup()
	assert.Empty(t, l.ips)
}
