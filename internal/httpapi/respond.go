// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/samber/oops"

	"github.com/shearbook/shearbook/pkg/errutil"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Message string `json:"message"`
}

// clientErrorCodes are auth failures the caller can act on. Everything
// else is an internal failure surfaced as a generic 500.
//
// oops resolves Code() to the deepest coded error in the chain, so a
// code stamped on an outer wrap never shadows one set closer to the
// failure. Codes added here must be set at the point of failure, not
// on a wrap site.
var clientErrorCodes = map[string]struct{}{
	"AUTH_DUPLICATE_EMAIL":     {},
	"AUTH_INVALID_CREDENTIALS": {},
	"AUTH_ACCOUNT_NOT_FOUND":   {},
	"AUTH_INVALID_TOKEN":       {},
	"AUTH_TOKEN_EXPIRED":       {},
	"AUTH_INVALID_INPUT":       {},
	"AUTH_EMPTY_PASSWORD":      {},
}

// writeJSON encodes v as the response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response write failed", "error", err)
	}
}

// writeError maps a service error onto the wire: the oops message for
// client errors, a generic message for anything internal.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		code, _ := oopsErr.Code().(string)
		if _, isClient := clientErrorCodes[code]; isClient {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: oopsErr.Error()})
			return
		}
	}
	errutil.LogError(s.logger, "internal error", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

// isClientError reports whether err maps to a 4xx response.
func isClientError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	code, _ := oopsErr.Code().(string)
	_, isClient := clientErrorCodes[code]
	return isClient
}
