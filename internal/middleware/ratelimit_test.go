// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

// loginHandler answers 401 unless the password form value is "ok".
var loginHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("password") == "ok" {
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Error(w, "Invalid username or password.", http.StatusUnauthorized)
})

func attempt(h http.Handler, ip, password string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/login?password="+password, nil)
	req.RemoteAddr = ip + ":40000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiterBlocksAfterFailures(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute)
	h := rl.Middleware(loginHandler)

	for i := 1; i <= 3; i++ {
		if rr := attempt(h, "10.0.0.1", "bad"); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d, want 401", i, rr.Code)
		}
	}

	// Even the right password is rejected while blocked.
	rr := attempt(h, "10.0.0.1", "ok")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("blocked attempt: got %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After: got %q, want %q", got, "60")
	}

	// Other clients are unaffected.
	if rr := attempt(h, "10.0.0.2", "ok"); rr.Code != http.StatusSeeOther {
		t.Errorf("other client: got %d, want 303", rr.Code)
	}
}

func TestRateLimiterIgnoresSuccess(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	h := rl.Middleware(loginHandler)

	for i := 1; i <= 5; i++ {
		if rr := attempt(h, "10.0.0.1", "ok"); rr.Code != http.StatusSeeOther {
			t.Fatalf("login %d: got %d, want 303", i, rr.Code)
		}
	}
	if n := len(rl.failures); n != 0 {
		t.Errorf("successful logins recorded %d clients", n)
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)
	h := rl.Middleware(loginHandler)

	attempt(h, "10.0.0.1", "bad")
	clock.advance(40 * time.Second)
	attempt(h, "10.0.0.1", "bad")

	rr := attempt(h, "10.0.0.1", "ok")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rr.Code)
	}
	// The first failure expires 20s from now.
	if got := rr.Header().Get("Retry-After"); got != "20" {
		t.Errorf("Retry-After: got %q, want %q", got, "20")
	}

	clock.advance(21 * time.Second)
	if rr := attempt(h, "10.0.0.1", "ok"); rr.Code != http.StatusSeeOther {
		t.Errorf("after first failure expired: got %d, want 303", rr.Code)
	}
}

func TestRateLimiterPrune(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, time.Minute)

	rl.fail("old")
	clock.advance(50 * time.Second)
	rl.fail("fresh")
	clock.advance(15 * time.Second)

	rl.prune()

	rl.mu.Lock()
	_, oldExists := rl.failures["old"]
	_, freshExists := rl.failures["fresh"]
	rl.mu.Unlock()

	if oldExists {
		t.Error("expired client should be pruned")
	}
	if !freshExists {
		t.Error("client with a recent failure should be kept")
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-real-ip wins",
			xri:        "10.0.0.2",
			xff:        "10.0.0.9",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.2",
		},
		{
			name:       "x-forwarded-for single",
			xff:        "10.0.0.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for uses the proxy's hop",
			xff:        "6.6.6.6, 172.16.0.1, 10.0.0.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.1:1234",
			want:       "192.168.1.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[::1]:8080",
			want:       "::1",
		},
		{
			name:       "remote addr no port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
