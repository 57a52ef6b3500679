// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type contextKey int

const (
	principalKey contextKey = iota
	requestIDKey
)

// principalFrom returns the authenticated account id, if any.
func principalFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(principalKey).(int64)
	return id, ok
}

// RequestIDFrom returns the request id assigned by the logging
// middleware, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLogging assigns each request a ULID, logs its outcome,
// and records latency.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := ulid.Make().String()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		s.metrics.ObserveRequestDuration(r.URL.Path, elapsed.Seconds())
		s.logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// requirePrincipal resolves the bearer access token into an account id
// and stores it in the request context. Requests without a usable
// token are rejected with 401.
func (s *Server) requirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "authentication required"})
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "invalid or expired token"})
			return
		}
		// Refresh tokens carry only the subject; a token without a role
		// claim does not authorize requests.
		if claims.Role == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "invalid or expired token"})
			return
		}
		accountID, err := claims.AccountID()
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
