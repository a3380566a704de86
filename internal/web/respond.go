// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

// Package web exposes the authentication operations as a JSON API.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/retrotech/authd/internal/auth"
	"github.com/retrotech/authd/pkg/errutil"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response body", "error", err)
	}
}

// statusForCode maps service error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case auth.CodeValidationFailed, auth.CodeTokenMalformed, auth.CodeTokenInvalidOrExpired:
		return http.StatusBadRequest
	case auth.CodeDuplicateUser:
		return http.StatusConflict
	case auth.CodeInvalidCredentials, auth.CodeNotAuthenticated:
		return http.StatusUnauthorized
	case auth.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error as JSON. Known error codes keep
// their caller-visible message; anything else becomes an opaque 500 so
// internal detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			status := statusForCode(code)
			msg := oopsErr.Error()
			if status >= http.StatusInternalServerError {
				msg = "temporary failure, please try again"
			}
			writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
			return
		}
	}

	errutil.LogError(slog.Default(), "unhandled error in request", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error: errorDetail{Code: "INTERNAL", Message: "internal server error"},
	})
}

// decodeJSON parses the request body into v, limiting the body size to
// keep malformed clients from holding memory.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return oops.Code(auth.CodeValidationFailed).Errorf("invalid request body")
	}
	return nil
}
