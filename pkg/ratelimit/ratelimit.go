// Package ratelimit limits requests per client IP with a token bucket.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	every  time.Duration
	burst  int
	idle   time.Duration
	mu     sync.Mutex
	ips    map[string]*visitor
	nowFun func() time.Time
}

// New allows burst requests per window per IP, refilling evenly across the
// window.
func New(burst int, window time.Duration) *Limiter {
	return &Limiter{
		every:  window / time.Duration(burst),
		burst:  burst,
		idle:   window,
		ips:    make(map[string]*visitor),
		nowFun: time.Now,
	}
}

func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.ips[ip] = v
	}
	v.lastSeen = l.nowFun()
	return v.limiter.AllowN(v.lastSeen, 1)
}

// Cleanup forgets IPs idle for longer than a full window.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFun()
	for ip, v := range l.ips {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.ips, ip)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			zap.L().Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(l.every.Seconds())))
			utils.RespondWithError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
