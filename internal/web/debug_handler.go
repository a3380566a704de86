// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"net/http"
	"time"

	"github.com/retrotech/authd/internal/auth"
)

// DebugHandler exposes the legacy troubleshooting endpoints. The
// routes dump raw user rows including password hashes, so the router
// only mounts them when explicitly enabled in configuration.
type DebugHandler struct {
	users   auth.UserRepository
	version string
}

// NewDebugHandler creates a DebugHandler.
func NewDebugHandler(users auth.UserRepository, version string) *DebugHandler {
	return &DebugHandler{
		users:   users,
		version: version,
	}
}

// debugUserView includes the stored hash and any pending reset token.
type debugUserView struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"password_hash"`
	CreatedAt         time.Time  `json:"created_at"`
	ResetToken        *string    `json:"reset_token,omitempty"`
	ResetTokenExpires *time.Time `json:"reset_token_expires,omitempty"`
}

// Users dumps every user row.
// GET /api/debug/users
func (h *DebugHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]debugUserView, 0, len(users))
	for _, u := range users {
		views = append(views, debugUserView{
			ID:                u.ID.String(),
			Username:          u.Username,
			Email:             u.Email,
			PasswordHash:      u.PasswordHash,
			CreatedAt:         u.CreatedAt,
			ResetToken:        u.ResetToken,
			ResetTokenExpires: u.ResetTokenExpires,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":     views,
		"debug":     true,
		"version":   h.version,
		"timestamp": time.Now().UTC(),
	})
}

// Info reports static system details.
// GET /api/debug/info
func (h *DebugHandler) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"system":   "RetroTech Solutions Authentication System",
		"version":  h.version,
		"debug":    true,
		"database": "PostgreSQL",
	})
}
