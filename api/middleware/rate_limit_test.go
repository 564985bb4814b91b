// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestRateLimiter(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewRateLimiter(60, 2, false, &mockLogger{})
	defer l.Close()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/staker/tiers", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "10.0.0.9")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, do("1.1.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("1.1.1.1:1001").Code)
	rr := do("1.1.1.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "RateLimited")

	// buckets are per ip, proxy headers are ignored unless trusted
	assert.Equal(t, http.StatusOK, do("2.2.2.2:1000").Code)

	assert.Equal(t, 0, l.cleanup(time.Now().Add(-time.Minute)))
	assert.Equal(t, 2, l.cleanup(time.Now().Add(time.Minute)))
	assert.Equal(t, http.StatusOK, do("1.1.1.1:1003").Code)
}

func TestRateLimiterTrustProxy(t *testing.T) {
	l := NewRateLimiter(60, 1, true, &mockLogger{})
	defer l.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.1.1.1:1000"
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	assert.Equal(t, "10.0.0.9", l.clientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "10.0.0.7")
	assert.Equal(t, "10.0.0.7", l.clientIP(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "1.1.1.1", l.clientIP(req))
}
