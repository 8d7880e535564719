package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter(t *testing.T) {
	tests := []struct {
		name         string
		ip           string
		expectStatus int
		numRequests  int
		sleep        time.Duration
		burst        int
		limit        rate.Limit
	}{
		{
			name:         "within rate limit",
			ip:           "10.0.0.1",
			expectStatus: http.StatusOK,
			numRequests:  20,
			limit:        rate.Every(time.Millisecond),
			burst:        20,
			sleep:        time.Millisecond,
		},
		{
			name:         "exceed rate limit",
			ip:           "10.0.0.1",
			expectStatus: http.StatusTooManyRequests,
			numRequests:  65,
			limit:        rate.Every(time.Millisecond),
			burst:        60,
			sleep:        0,
		},
		{
			name:         "ok as tokens refresh",
			ip:           "10.0.0.1",
			expectStatus: http.StatusOK,
			numRequests:  10,
			limit:        rate.Every(time.Millisecond),
			burst:        1,
			sleep:        time.Millisecond,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rl := NewRateLimiter(slog.Default(), IPAddressKeyFunc, tc.limit, tc.burst)

			handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tc.ip

			var rec *httptest.ResponseRecorder
			for i := 0; i < tc.numRequests; i++ {
				rec = httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				time.Sleep(tc.sleep)
			}

			assert.Equal(t, tc.expectStatus, rec.Code)
		})
	}
}

func TestRateLimiterSkipper(t *testing.T) {
	rl := NewRateLimiter(slog.Default(), IPAddressKeyFunc, rate.Every(time.Hour), 1,
		WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }))

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2"
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
