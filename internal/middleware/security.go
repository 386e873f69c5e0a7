// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// contentSecurityPolicy allows only same-origin scripts, so editor.js must
// not rely on inline handlers. Inline styles are needed for
// syntax-highlighted code blocks.
const contentSecurityPolicy = "default-src 'self'; script-src 'self'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; " +
	"frame-ancestors 'self'; base-uri 'self'; form-action 'self'"

// baseHeaders are set on every response.
var baseHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", contentSecurityPolicy},
}

// privatePrefixes are paths whose responses depend on the session or on
// unpublished content and must never be stored by browsers or proxies.
var privatePrefixes = []string{"/admin", "/api/"}

// SecureHeaders adds the security headers to every response, and
// Cache-Control: no-store to admin and API responses.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range baseHeaders {
			h.Set(kv[0], kv[1])
		}
		if isPrivatePath(r.URL.Path) {
			h.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

func isPrivatePath(path string) bool {
	for _, p := range privatePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
