// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a handler panic into a logged 500. When the handler had
// already started the response, nothing more is written. It sits outside
// Logger, so the request ID is read back from the response header.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", w.Header().Get(RequestIDHeader),
				"response_started", sw.started(),
				"stack", string(debug.Stack()),
			)
			if !sw.started() {
				reject(w, r, http.StatusInternalServerError, "Internal Server Error")
			}
		}()

		next.ServeHTTP(sw, r)
	})
}
