// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/shearbook/shearbook/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// sessionResponse is the body for signup, login, and refresh.
type sessionResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         auth.Profile `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func sessionBody(session *auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         session.Account,
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.recordOutcome("signup", "client_error")
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	session, err := s.service.Signup(r.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     auth.Role(req.Role),
	})
	if err != nil {
		s.recordFailure("signup", err)
		s.writeError(w, err)
		return
	}

	s.recordOutcome("signup", "ok")
	s.writeJSON(w, http.StatusOK, sessionBody(session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.recordOutcome("login", "client_error")
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	session, err := s.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.recordFailure("login", err)
		s.writeError(w, err)
		return
	}

	s.recordOutcome("login", "ok")
	s.writeJSON(w, http.StatusOK, sessionBody(session))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalFrom(r.Context())
	if !ok {
		// requirePrincipal should have rejected already.
		s.recordOutcome("whoami", "client_error")
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "authentication required"})
		return
	}

	profile, err := s.service.WhoAmI(r.Context(), accountID)
	if err != nil {
		s.recordFailure("whoami", err)
		s.writeError(w, err)
		return
	}

	s.recordOutcome("whoami", "ok")
	s.writeJSON(w, http.StatusOK, map[string]*auth.Profile{"user": profile})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.recordOutcome("refresh", "client_error")
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	session, err := s.service.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		s.recordFailure("refresh", err)
		s.writeError(w, err)
		return
	}

	s.recordOutcome("refresh", "ok")
	s.writeJSON(w, http.StatusOK, sessionBody(session))
}

// handleLogout is a client-side convention: tokens are stateless, so
// the server has nothing to invalidate.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.recordOutcome("logout", "ok")
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) recordOutcome(operation, status string) {
	s.metrics.RecordAuthRequest(operation, status)
}

func (s *Server) recordFailure(operation string, err error) {
	if isClientError(err) {
		s.metrics.RecordAuthRequest(operation, "client_error")
		return
	}
	s.metrics.RecordAuthRequest(operation, "server_error")
}
