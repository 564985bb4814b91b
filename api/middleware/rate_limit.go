// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/log"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterStaleAfter      = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// RateLimiter throttles requests per client IP with a token bucket each.
type RateLimiter struct {
	perMinute  int
	burst      int
	trustProxy bool
	limiters   sync.Map // ip => *limiterEntry
	logger     log.Logger

	cancel context.CancelFunc
	goes   co.Goes
}

// NewRateLimiter allows perMinute requests per IP with the given burst. Stale entries are
// dropped in the background until Close.
func NewRateLimiter(perMinute, burst int, trustProxy bool, logger log.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())
	l := &RateLimiter{
		perMinute:  perMinute,
		burst:      burst,
		trustProxy: trustProxy,
		logger:     logger,
		cancel:     cancel,
	}
	l.goes.Loop(ctx, limiterCleanupInterval, func() {
		l.cleanup(time.Now().Add(-limiterStaleAfter))
	})
	return l
}

func (l *RateLimiter) limiter(ip string, now time.Time) *rate.Limiter {
	if val, ok := l.limiters.Load(ip); ok {
		entry := val.(*limiterEntry)
		entry.lastSeen.Store(now.UnixNano())
		return entry.limiter
	}
	entry := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.burst)}
	entry.lastSeen.Store(now.UnixNano())
	actual, _ := l.limiters.LoadOrStore(ip, entry)
	return actual.(*limiterEntry).limiter
}

// cleanup removes entries not seen since staleBefore.
func (l *RateLimiter) cleanup(staleBefore time.Time) int {
	var cleaned int
	l.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastSeen.Load() < staleBefore.UnixNano() {
			l.limiters.Delete(key)
			cleaned++
		}
		return true
	})
	if cleaned > 0 {
		l.logger.Debug("cleaned up stale rate limiters", "count", cleaned)
	}
	return cleaned
}

// clientIP uses proxy headers only when trusted, the TCP peer otherwise.
func (l *RateLimiter) clientIP(r *http.Request) string {
	if l.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.IndexByte(xff, ','); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Middleware answers 429 once the bucket of the client is empty.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(max(60/max(l.perMinute, 1), 1))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		if !l.limiter(ip, time.Now()).Allow() {
			l.logger.Debug("rate limit exceeded", "ip", ip, "path", r.URL.Path, "method", r.Method)
			w.Header().Set("Retry-After", retryAfter)
			w.Header().Set("Content-Type", restutil.JSONContentType)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded","kind":"RateLimited","retryable":true}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the cleanup loop.
func (l *RateLimiter) Close() {
	l.cancel()
	l.goes.Wait()
}
