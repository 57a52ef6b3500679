// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

// Package httpapi exposes the authentication service over HTTP. The
// handlers are thin adapters: request decoding, principal resolution,
// and error-to-status mapping live here; all auth decisions live in
// internal/auth.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/shearbook/shearbook/internal/auth"
	"github.com/shearbook/shearbook/internal/observability"
)

// Server serves the /auth HTTP API.
type Server struct {
	addr       string
	service    *auth.Service
	tokens     *auth.TokenCodec
	logger     *slog.Logger
	metrics    *observability.Metrics
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server. metrics may be nil when the
// observability listener is disabled.
func NewServer(addr string, service *auth.Service, tokens *auth.TokenCodec, logger *slog.Logger, metrics *observability.Metrics) (*Server, error) {
	if service == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token codec is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		service: service,
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Handler builds the route table. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /auth/me", s.requirePrincipal(http.HandlerFunc(s.handleMe)))
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.withRequestLogging(mux)
}

// Start begins serving the auth API. It returns an error channel that
// receives any serve error; the channel closes on graceful shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("auth API server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("auth API server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("auth API server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_auth_api_server").Wrap(err)
		}
	}

	s.logger.Info("auth API server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}
