// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/retrotech/authd/internal/auth"
	"github.com/retrotech/authd/internal/observability"
)

// RouterDeps collects the dependencies NewRouter needs.
type RouterDeps struct {
	Auth  *auth.Service
	Reset *auth.PasswordResetService

	// Users is only consumed by the debug routes.
	Users auth.UserRepository

	// Metrics may be nil to disable request counting.
	Metrics *observability.Metrics

	SessionTTL time.Duration
	Version    string

	// DebugEnabled mounts the /api/debug routes. Off unless the
	// operator asks for it: the routes expose raw password hashes.
	DebugEnabled bool
}

// NewRouter builds the full API surface.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CountRequests(deps.Metrics))

	authHandler := NewAuthHandler(deps.Auth, deps.Metrics, deps.SessionTTL)
	resetHandler := NewResetHandler(deps.Reset, deps.Metrics)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuthenticated(deps.Auth))
			r.Get("/me", authHandler.Me)
		})
	})

	r.Route("/reset", func(r chi.Router) {
		r.Post("/reset-password", resetHandler.Request)
		r.Get("/reset-password/{token}", resetHandler.Validate)
		r.Post("/reset-password/{token}", resetHandler.Complete)
	})

	if deps.DebugEnabled {
		debugHandler := NewDebugHandler(deps.Users, deps.Version)
		r.Route("/api/debug", func(r chi.Router) {
			r.Get("/users", debugHandler.Users)
			r.Get("/info", debugHandler.Info)
		})
	}

	return r
}
