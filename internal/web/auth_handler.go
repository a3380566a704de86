// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/retrotech/authd/internal/auth"
	"github.com/retrotech/authd/internal/observability"
)

// AuthHandler serves registration, login, logout and the current-user
// endpoint.
type AuthHandler struct {
	service    *auth.Service
	metrics    *observability.Metrics
	sessionTTL time.Duration
}

// NewAuthHandler creates an AuthHandler. metrics may be nil.
func NewAuthHandler(service *auth.Service, metrics *observability.Metrics, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:    service,
		metrics:    metrics,
		sessionTTL: sessionTTL,
	}
}

// userView is the public JSON shape of a user record.
type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.countRegistration(outcomeForError(err))
		writeError(w, err)
		return
	}

	h.countRegistration("success")
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": userView{
			ID:        user.ID.String(),
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	})
}

// Login verifies credentials and establishes a session cookie.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.countLogin(outcomeForError(err))
		writeError(w, err)
		return
	}

	h.countLogin("success")
	setSessionCookie(w, token, h.sessionTTL)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userView{
			ID:        session.UserID.String(),
			Username:  session.Username,
			Email:     session.Email,
			CreatedAt: session.UserCreatedAt,
		},
	})
}

// Logout destroys the session. It always succeeds from the client's
// point of view; a missing or stale cookie is not an error.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		h.service.Logout(r.Context(), token)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the user snapshot of the authenticated session.
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := SessionFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userView{
			ID:        session.UserID.String(),
			Username:  session.Username,
			Email:     session.Email,
			CreatedAt: session.UserCreatedAt,
		},
	})
}

func (h *AuthHandler) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *AuthHandler) countRegistration(outcome string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

// outcomeForError buckets a service error for metric labels.
func outcomeForError(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case auth.CodeInvalidCredentials, auth.CodeTokenMalformed, auth.CodeTokenInvalidOrExpired:
			return "invalid"
		case auth.CodeValidationFailed:
			return "validation"
		case auth.CodeDuplicateUser:
			return "duplicate"
		}
	}
	return "error"
}
