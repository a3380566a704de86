// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retrotech/authd/internal/auth"
	"github.com/retrotech/authd/internal/observability"
)

// msgResetRequested is returned for every reset request that passes
// input validation, whether or not the account exists.
const msgResetRequested = "If the account exists, a reset link has been sent."

// ResetHandler serves the password reset workflow.
type ResetHandler struct {
	service *auth.PasswordResetService
	metrics *observability.Metrics
}

// NewResetHandler creates a ResetHandler. metrics may be nil.
func NewResetHandler(service *auth.PasswordResetService, metrics *observability.Metrics) *ResetHandler {
	return &ResetHandler{
		service: service,
		metrics: metrics,
	}
}

type resetRequestBody struct {
	Identifier string `json:"identifier"`
}

type resetCompleteBody struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Request starts the reset workflow for a username or email. The
// response does not reveal whether the account exists.
// POST /reset/reset-password
func (h *ResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req resetRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.RequestReset(r.Context(), req.Identifier); err != nil {
		h.countReset("request", outcomeForError(err))
		writeError(w, err)
		return
	}

	h.countReset("request", "success")
	writeJSON(w, http.StatusAccepted, map[string]any{"message": msgResetRequested})
}

// Validate checks a reset token and returns the account it belongs to,
// so a client can show the reset form with the username filled in.
// GET /reset/reset-password/{token}
func (h *ResetHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := h.service.ValidateToken(r.Context(), token)
	if err != nil {
		h.countReset("validate", outcomeForError(err))
		writeError(w, err)
		return
	}

	h.countReset("validate", "success")
	writeJSON(w, http.StatusOK, map[string]any{"username": user.Username})
}

// Complete sets a new password for the account the token belongs to.
// POST /reset/reset-password/{token}
func (h *ResetHandler) Complete(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req resetCompleteBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.CompleteReset(r.Context(), token, req.Password, req.ConfirmPassword); err != nil {
		h.countReset("complete", outcomeForError(err))
		writeError(w, err)
		return
	}

	h.countReset("complete", "success")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password has been reset. You can now log in."})
}

func (h *ResetHandler) countReset(stage, outcome string) {
	if h.metrics != nil {
		h.metrics.ResetsTotal.WithLabelValues(stage, outcome).Inc()
	}
}
