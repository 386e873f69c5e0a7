// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter throttles failed admin sign-in attempts per client IP. Only
// responses with status 401 count against the limit, so a successful login
// never locks its own client out. Once a client has limit failures inside
// the sliding window, further requests are rejected with 429 until the
// oldest failure leaves the window.
type RateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows limit failed attempts per window and client. A
// background goroutine drops idle clients once per window until Stop.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		failures: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.prune()
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

// Stop ends the pruning goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// recent drops expired failures for key and returns the remaining ones.
// Callers hold rl.mu.
func (rl *RateLimiter) recent(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	kept := rl.failures[key][:0]
	for _, ts := range rl.failures[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(rl.failures, key)
		return nil
	}
	rl.failures[key] = kept
	return kept
}

// blocked reports whether key is over the limit and, if so, how long until
// its oldest failure expires.
func (rl *RateLimiter) blocked(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	hits := rl.recent(key, now)
	if len(hits) < rl.limit {
		return 0, false
	}
	return hits[0].Add(rl.window).Sub(now), true
}

// fail records a failed attempt for key.
func (rl *RateLimiter) fail(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.failures[key] = append(rl.recent(key, now), now)
}

// prune drops clients whose failures have all expired.
func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key := range rl.failures {
		rl.recent(key, now)
	}
}

// Middleware rejects clients over the limit with 429 and a Retry-After in
// whole seconds, and counts 401 responses of the wrapped handler as
// failures.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if wait, ok := rl.blocked(ip); ok {
			slog.Warn("login rate limit exceeded", "ip", ip, "path", r.URL.Path,
				"request_id", RequestIDFromCtx(r.Context()))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			reject(w, r, http.StatusTooManyRequests, "Too many failed attempts. Try again later.")
			return
		}

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.code() == http.StatusUnauthorized {
			rl.fail(ip)
		}
	})
}

// clientIP identifies the client. Behind a reverse proxy the address comes
// from X-Real-IP, or else the last X-Forwarded-For hop, which is the one
// the proxy appended. Direct connections use RemoteAddr without the port.
func clientIP(r *http.Request) string {
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
			return last
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
